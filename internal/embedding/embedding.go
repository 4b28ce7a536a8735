// Package embedding holds the on-disk encoding of face descriptors and the
// distance functions used to compare them.
package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Dim is the descriptor length produced by the dlib ResNet face model.
const Dim = 128

// ErrCorruptEmbedding is returned when a blob cannot be a packed float64 array.
var ErrCorruptEmbedding = errors.New("corrupt embedding blob")

// Marshal packs the vector as little-endian float64 values with no header,
// 8 bytes per element. A 128-d descriptor is 1024 bytes.
func Marshal(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 8", ErrCorruptEmbedding, len(blob))
	}
	vec := make([]float64, len(blob)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vec, nil
}

// Metric scores how far apart two descriptors are. Smaller is closer.
type Metric func(a, b []float64) float64

// MetricByName returns the metric called name: "euclidean" (the default for
// an empty name) or "cosine".
func MetricByName(name string) (Metric, error) {
	switch name {
	case "", "euclidean":
		return Distance, nil
	case "cosine":
		return CosineDist, nil
	default:
		return nil, fmt.Errorf("unknown metric %q: must be euclidean or cosine", name)
	}
}

// Distance returns the euclidean distance between two descriptors.
// Vectors of different length are infinitely far apart.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDist calculates 1 - CosineSimilarity.
// Returns 1.0 when either vector has zero length.
func CosineDist(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
