package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// DefaultDevice returns the first camera for the given OS in the syntax the
// matching ffmpeg input format expects.
func DefaultDevice(goos string) string {
	switch goos {
	case "darwin":
		return "0"
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}

// FFmpegArgs builds the argument list that grabs exactly one MJPEG frame from
// the device and writes it to stdout.
func FFmpegArgs(goos, device string) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	switch goos {
	case "darwin":
		args = append(args, "-f", "avfoundation", "-framerate", "30", "-i", device)
	case "windows":
		args = append(args, "-f", "dshow", "-i", device)
	default:
		args = append(args, "-f", "v4l2", "-i", device)
	}
	return append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-")
}

// FFmpeg is a capture device backed by an ffmpeg child process.
type FFmpeg struct {
	cmd *utils.SafeCommand
	out io.ReadCloser

	once       sync.Once
	releaseErr error
}

// NewFFmpegOpener returns an Opener that spawns bin against device.
func NewFFmpegOpener(bin, device string, log *logrus.Entry) Opener {
	return func(ctx context.Context) (Device, error) {
		args := FFmpegArgs(runtime.GOOS, device)
		log.WithField("cmd", bin+" "+strings.Join(args, " ")).Debug("opening camera")
		return OpenFFmpeg(bin, args...)
	}
}

// OpenFFmpeg starts the capture process. The caller owns the returned device
// and must Release it.
func OpenFFmpeg(bin string, args ...string) (*FFmpeg, error) {
	cmd := utils.NewSafeCommand(bin, args...)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}
	return &FFmpeg{cmd: cmd, out: out}, nil
}

// Read returns the first complete frame from the device.
func (d *FFmpeg) Read(ctx context.Context) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := readFrame(d.out)
		done <- result{img, err}
	}()

	select {
	case <-ctx.Done():
		// Killing the child unblocks the reader goroutine
		d.Release()
		return nil, ctx.Err()
	case r := <-done:
		if r.err == nil {
			return r.img, nil
		}
		// Reaping the child flushes its stderr into the buffer
		d.Release()
		if d.cmd.Stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", r.err, strings.TrimSpace(d.cmd.Stderr.String()))
		}
		return nil, r.err
	}
}

// Release kills the capture process (if still running) and reaps it.
func (d *FFmpeg) Release() error {
	d.once.Do(func() {
		if d.cmd.Process != nil {
			if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				d.releaseErr = err
			}
		}
		// Exit status is non-zero after Kill, that is expected
		d.cmd.Wait()
	})
	return d.releaseErr
}

// readFrame extracts and decodes the first JPEG in the stream.
func readFrame(r io.Reader) (image.Image, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
		}
		return nil, ErrNoFrame
	}

	img, err := jpeg.Decode(bytes.NewReader(scanner.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	return img, nil
}
