package utils

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSplitJpeg(t *testing.T) {
	// Construct a stream containing: [Garbage] [JPEG] [Garbage]
	// SOI (Start of Image): FF D8
	// EOI (End of Image):   FF D9

	jpegData := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0xFF, 0xD9}

	streamData := []byte{0x00, 0x00} // Garbage at start
	streamData = append(streamData, jpegData...)
	streamData = append(streamData, []byte{0x00, 0x00}...) // Garbage at end

	scanner := bufio.NewScanner(bytes.NewReader(streamData))
	scanner.Split(SplitJpeg)

	// Scan() should skip the first garbage bytes and find the JPEG
	if !scanner.Scan() {
		t.Fatal("Expected to find a token, got EOF")
	}

	if !bytes.Equal(scanner.Bytes(), jpegData) {
		t.Errorf("Expected %X, got %X", jpegData, scanner.Bytes())
	}

	// Trailing garbage is not a JPEG
	if scanner.Scan() {
		t.Error("Expected only one token, found more")
	}
}

func TestSplitJpegTruncated(t *testing.T) {
	// SOI without EOI: the camera died mid-frame
	scanner := bufio.NewScanner(bytes.NewReader([]byte{0xFF, 0xD8, 0x01, 0x02}))
	scanner.Split(SplitJpeg)

	if scanner.Scan() {
		t.Errorf("Expected no token for a truncated frame, got %X", scanner.Bytes())
	}
}

func TestShowError(t *testing.T) {
	var buf bytes.Buffer
	old := ErrorOutput
	ErrorOutput = &buf
	defer func() { ErrorOutput = old }()

	cmd := NewSafeCommand("true")
	cmd.Stderr.WriteString("Traceback: model file missing")

	ShowError("Camera unavailable", errors.New("device busy"), cmd)

	out := buf.String()
	for _, want := range []string{"FACEENROLL ERROR: Camera unavailable", "DETAILS: device busy", "Traceback: model file missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
