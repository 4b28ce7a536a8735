// Package facerec implements the enrollment and verification flows on top of
// a capture device, a face model and the enrollment store.
package facerec

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/andresmejia3/faceenroll/internal/camera"
	"github.com/andresmejia3/faceenroll/internal/types"
	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/sirupsen/logrus"
)

// FaceEmbedder is the face model: a detector plus a landmark-driven
// descriptor extractor. Implementations load their models once and are
// reused across calls.
type FaceEmbedder interface {
	Detect(ctx context.Context, img *image.RGBA) ([]types.Region, error)
	Embed(ctx context.Context, img *image.RGBA, region types.Region) (types.Embedding, error)
}

// Capture grabs one frame and turns the first face in it into a descriptor.
type Capture struct {
	Camera   camera.Opener
	Embedder FaceEmbedder
	// Dim is the descriptor length every stored embedding must have. Zero disables the check.
	Dim int
	// Out receives progress output; nil keeps the capture silent.
	Out io.Writer
	Log *logrus.Entry
}

// CaptureResult is the outcome of a successful capture.
type CaptureResult struct {
	Embedding types.Embedding
	Region    types.Region
	Faces     int // number of faces the detector reported
	Frame     image.Rectangle
}

// Run performs acquisition, color conversion, detection and descriptor
// extraction. The camera is released before any model work starts.
func (c *Capture) Run(ctx context.Context) (CaptureResult, error) {
	// 1. Acquire exactly one frame
	frame, err := c.grab(ctx)
	if err != nil {
		return CaptureResult{}, err
	}

	// 2. Convert to the packed RGB layout the models expect
	rgb := camera.ToRGB(frame)
	c.logger().WithField("size", rgb.Rect.Size()).Debug("frame captured")

	// 3. Detect
	var spinner *utils.Spinner
	if c.Out != nil {
		spinner = utils.NewSpinner(c.Out, "🔍 Analyzing face...")
		defer spinner.Stop()
	}
	start := time.Now()
	regions, err := c.Embedder.Detect(ctx, rgb)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return CaptureResult{}, fmt.Errorf("face detection failed: %w", err)
	}
	c.logger().WithFields(logrus.Fields{"faces": len(regions), "took": time.Since(start)}).Debug("detection finished")

	if len(regions) == 0 {
		return CaptureResult{}, ErrNoFaceDetected
	}
	if len(regions) > 1 {
		c.logger().WithField("faces", len(regions)).Info("multiple faces detected, using the first")
		if c.Out != nil {
			fmt.Fprintf(c.Out, "⚠️  Multiple faces detected (%d). Using the first one.\n", len(regions))
		}
	}
	region := regions[0]
	c.logger().WithFields(logrus.Fields{"region": region.Rect, "area": region.Area()}).Debug("face selected")

	// 4. Landmarks + descriptor
	start = time.Now()
	vec, err := c.Embedder.Embed(ctx, rgb, region)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("descriptor extraction failed: %w", err)
	}
	c.logger().WithField("took", time.Since(start)).Debug("descriptor computed")

	if c.Dim > 0 && len(vec) != c.Dim {
		return CaptureResult{}, fmt.Errorf("model returned a %d-d descriptor, expected %d", len(vec), c.Dim)
	}

	return CaptureResult{
		Embedding: vec,
		Region:    region,
		Faces:     len(regions),
		Frame:     rgb.Rect,
	}, nil
}

// grab opens the device, reads one frame and releases the device on every path.
func (c *Capture) grab(ctx context.Context) (image.Image, error) {
	dev, err := c.Camera(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}
	defer func() {
		if err := dev.Release(); err != nil {
			c.logger().WithError(err).Warn("failed to release camera")
		}
	}()

	frame, err := dev.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", ErrCameraUnavailable, camera.ErrNoFrame)
	}
	return frame, nil
}

func (c *Capture) logger() *logrus.Entry {
	if c.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return c.Log
}
