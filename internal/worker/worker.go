package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/andresmejia3/faceenroll/internal/camera"
	"github.com/andresmejia3/faceenroll/internal/types"
	"github.com/andresmejia3/faceenroll/internal/utils" // Using the SafeCommand wrapper
)

// Request opcodes understood by python/worker.py
const (
	opDetect byte = 1
	opEmbed  byte = 2
)

// Response status bytes
const (
	statusOK    byte = 0
	statusError byte = 1
)

// Config describes how to launch the Python model worker.
type Config struct {
	Python    string // interpreter, e.g. python3
	Script    string // path to worker.py
	ModelsDir string // directory holding the dlib .dat files
}

// PythonWorker runs the dlib models in a child process and talks to it over
// a length-prefixed binary protocol.
type PythonWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
}

// NewPythonWorker spawns the worker process. The models are loaded once by the
// child and reused for every request until Close.
func NewPythonWorker(id int, cfg Config) (*PythonWorker, error) {
	// 1. Initialize the SafeCommand
	py := utils.NewSafeCommand(cfg.Python, "-u", cfg.Script, "--models", cfg.ModelsDir)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close() // Close write end if start fails
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &PythonWorker{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// Communicate sends one request and blocks for its response.
func (w *PythonWorker) Communicate(data []byte) ([]byte, error) {
	// Protocol: [Length][Data]
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	// Read Result from the clean DataPipe, Python's prints go to stderr
	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch the "ModuleNotFoundError" crash
	}

	respLen := binary.BigEndian.Uint32(header)
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

// Detect returns the face boxes found in img, in detector order.
func (w *PythonWorker) Detect(ctx context.Context, img *image.RGBA) ([]types.Region, error) {
	resp, err := w.call(encodeFrame(opDetect, img, nil))
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := binary.Read(resp, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read face count: %w", err)
	}

	regions := make([]types.Region, 0, count)
	for i := 0; i < int(count); i++ {
		var box [4]int32 // left, top, right, bottom
		if err := binary.Read(resp, binary.BigEndian, &box); err != nil {
			return nil, fmt.Errorf("failed to read box %d: %w", i, err)
		}
		regions = append(regions, types.Region{
			Rect: image.Rect(int(box[0]), int(box[1]), int(box[2]), int(box[3])),
		})
	}
	return regions, nil
}

// Embed computes landmarks inside region and returns the face descriptor.
func (w *PythonWorker) Embed(ctx context.Context, img *image.RGBA, region types.Region) (types.Embedding, error) {
	resp, err := w.call(encodeFrame(opEmbed, img, &region))
	if err != nil {
		return nil, err
	}

	var dim uint32
	if err := binary.Read(resp, binary.BigEndian, &dim); err != nil {
		return nil, fmt.Errorf("failed to read descriptor length: %w", err)
	}
	vec := make(types.Embedding, dim)
	if err := binary.Read(resp, binary.BigEndian, []float64(vec)); err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return vec, nil
}

// Close shuts down stdin so the child exits, then reaps it.
func (w *PythonWorker) Close() error {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd == nil {
		return nil
	}
	return w.Cmd.Wait()
}

// call performs a round trip and strips the status byte.
func (w *PythonWorker) call(req []byte) (*bytes.Reader, error) {
	body, err := w.Communicate(req)
	if err != nil {
		return nil, fmt.Errorf("worker %d communication failed: %w", w.ID, err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response from python worker")
	}

	resp := bytes.NewReader(body[1:])
	switch body[0] {
	case statusOK:
		return resp, nil
	case statusError:
		var msgLen uint32
		if err := binary.Read(resp, binary.BigEndian, &msgLen); err != nil {
			return nil, fmt.Errorf("malformed error response: %w", err)
		}
		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(resp, msg); err != nil {
			return nil, fmt.Errorf("malformed error response: %w", err)
		}
		return nil, fmt.Errorf("python worker error: %s", msg)
	default:
		return nil, fmt.Errorf("unknown response status %d", body[0])
	}
}

// encodeFrame builds [Op][Width][Height][RGB...][Box?].
func encodeFrame(op byte, img *image.RGBA, region *types.Region) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	buf := bytes.NewBuffer(make([]byte, 0, 9+w*h*3+16))
	buf.WriteByte(op)
	binary.Write(buf, binary.BigEndian, uint32(w))
	binary.Write(buf, binary.BigEndian, uint32(h))
	buf.Write(camera.PackRGB(img))
	if region != nil {
		r := region.Rect
		binary.Write(buf, binary.BigEndian, [4]int32{int32(r.Min.X), int32(r.Min.Y), int32(r.Max.X), int32(r.Max.Y)})
	}
	return buf.Bytes()
}
