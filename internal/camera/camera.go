// Package camera grabs single frames from a capture device.
package camera

import (
	"context"
	"errors"
	"image"
)

// ErrNoFrame is returned when the device produced no decodable frame.
var ErrNoFrame = errors.New("camera returned no frame")

// Device is an open capture handle. Release must be safe to call more than once.
type Device interface {
	Read(ctx context.Context) (image.Image, error)
	Release() error
}

// Opener opens the configured capture device.
type Opener func(ctx context.Context) (Device, error)
