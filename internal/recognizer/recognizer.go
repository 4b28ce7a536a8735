//go:build dlib

package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/Kagami/go-face"
	"github.com/andresmejia3/faceenroll/internal/types"
)

// ErrRegionNotFound is returned by Embed when the region was not produced by
// Detect on the same frame.
var ErrRegionNotFound = errors.New("region not found in frame")

// Dlib wraps a go-face recognizer. It is not safe for concurrent use.
type Dlib struct {
	rec *face.Recognizer
	cnn bool

	// go-face detects and describes in one pass, so Detect keeps the result
	// for Embed on the same frame.
	lastFrame *image.RGBA
	lastFaces []face.Face
}

// New loads all three models from modelsDir whatever cnn is set to:
// mmod_human_face_detector.dat, shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat. cnn only picks the detector used
// per frame (CNN instead of HOG).
func New(modelsDir string, cnn bool) (*Dlib, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("can not initialize face recognizer: %w", err)
	}
	return &Dlib{rec: rec, cnn: cnn}, nil
}

// Detect returns face regions in detector order.
func (d *Dlib) Detect(ctx context.Context, img *image.RGBA) ([]types.Region, error) {
	faces, err := d.recognize(img)
	if err != nil {
		return nil, err
	}
	return regions(faces), nil
}

// Embed returns the 128-d descriptor of the face at region.
func (d *Dlib) Embed(ctx context.Context, img *image.RGBA, region types.Region) (types.Embedding, error) {
	faces := d.lastFaces
	if img != d.lastFrame {
		var err error
		if faces, err = d.recognize(img); err != nil {
			return nil, err
		}
	}
	for _, f := range faces {
		if f.Rectangle == region.Rect {
			return descriptorToEmbedding(f.Descriptor), nil
		}
	}
	return nil, ErrRegionNotFound
}

// Close frees the native model memory.
func (d *Dlib) Close() error {
	d.rec.Close()
	return nil
}

func (d *Dlib) recognize(img *image.RGBA) ([]face.Face, error) {
	// go-face decodes JPEG on the C side
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	var (
		faces []face.Face
		err   error
	)
	if d.cnn {
		faces, err = d.rec.RecognizeCNN(buf.Bytes())
	} else {
		faces, err = d.rec.Recognize(buf.Bytes())
	}
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	d.lastFrame = img
	d.lastFaces = faces
	return faces, nil
}

func regions(faces []face.Face) []types.Region {
	out := make([]types.Region, len(faces))
	for i, f := range faces {
		out[i] = types.Region{Rect: f.Rectangle}
	}
	return out
}

func descriptorToEmbedding(d face.Descriptor) types.Embedding {
	vec := make(types.Embedding, len(d))
	for i, v := range d {
		vec[i] = float64(v)
	}
	return vec
}
