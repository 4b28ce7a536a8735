package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (ffmpeg and Python logs)
// This ensures we don't lose critical crash information if a child dies.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe
// It prepares the command for execution but does not start it.
func NewSafeCommand(name string, args ...string) *SafeCommand {
	cmd := exec.Command(name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ErrorOutput is where ShowError writes. Tests swap it for a buffer.
var ErrorOutput io.Writer = os.Stderr

// ShowError prints a formatted error box and dumps child process logs if a SafeCommand is provided.
// It does not exit; the caller returns the error so cobra can set the exit status.
func ShowError(context string, err error, s *SafeCommand) {
	fmt.Fprintf(ErrorOutput, "\n---------------------------------------------------------\n")
	fmt.Fprintf(ErrorOutput, "🚨 FACEENROLL ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(ErrorOutput, "DETAILS: %v\n", err)
	}

	// If we have a SafeCommand and it captured logs, print them.
	if s != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(ErrorOutput, "\nCHILD PROCESS LOGS:\n%s\n", s.Stderr.String())
	}
	fmt.Fprintf(ErrorOutput, "---------------------------------------------------------\n")
}

// --- 2. Frame Splitting ---

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	JpegEOI = []byte{0xFF, 0xD9} // End of Image
)

// SplitJpeg is the custom splitter for bufio.Scanner
// It locates the Start Of Image (FFD8) and End Of Image (FFD9) markers to extract full JPEG frames.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, JpegSOI)
	if start == -1 {
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], JpegEOI)
	if end == -1 {
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}
