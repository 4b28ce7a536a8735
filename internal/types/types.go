package types

import "image"

// Region is a face bounding box reported by a detector.
type Region struct {
	Rect image.Rectangle
}

// Area returns the pixel area of the region.
func (r Region) Area() int {
	return r.Rect.Dx() * r.Rect.Dy()
}

// Embedding is a fixed-length face descriptor (128-d for the dlib ResNet model).
type Embedding []float64

// User is one enrollment row from the users table.
type User struct {
	ID        int64
	Name      string
	Embedding Embedding
}
