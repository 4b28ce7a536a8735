package embedding

import (
	"errors"
	"math"
	"testing"
)

func TestMarshalRoundTrip(t *testing.T) {
	vec := make([]float64, Dim)
	for i := range vec {
		vec[i] = math.Sin(float64(i)) * 0.25
	}
	vec[3] = math.Copysign(0, -1)
	vec[7] = math.SmallestNonzeroFloat64

	blob := Marshal(vec)
	if len(blob) != Dim*8 {
		t.Fatalf("Expected %d bytes, got %d", Dim*8, len(blob))
	}

	got, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("Expected %d values, got %d", len(vec), len(got))
	}
	for i := range vec {
		if math.Float64bits(got[i]) != math.Float64bits(vec[i]) {
			t.Errorf("value %d: expected %v, got %v", i, vec[i], got[i])
		}
	}
}

func TestMarshalLayout(t *testing.T) {
	// 1.0 as little-endian IEEE-754 double
	blob := Marshal([]float64{1.0})
	want := []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}
	if string(blob) != string(want) {
		t.Errorf("Expected % X, got % X", want, blob)
	}
}

func TestUnmarshalCorrupt(t *testing.T) {
	_, err := Unmarshal([]byte{1, 2, 3})
	if !errors.Is(err, ErrCorruptEmbedding) {
		t.Fatalf("Expected ErrCorruptEmbedding, got %v", err)
	}

	vec, err := Unmarshal(nil)
	if err != nil || len(vec) != 0 {
		t.Errorf("Expected empty vector for empty blob, got %v (err %v)", vec, err)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Unit step", []float64{0, 0}, []float64{3, 4}, 5},
		{"Length mismatch", []float64{1}, []float64{1, 2}, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.IsInf(tt.want, 1) {
				if !math.IsInf(got, 1) {
					t.Errorf("Distance() = %v, want +Inf", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDist(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"Identical vectors", []float64{1.0, 0.0}, []float64{1.0, 0.0}, 0.0},
		{"Orthogonal vectors", []float64{1.0, 0.0}, []float64{0.0, 1.0}, 1.0},
		{"Opposite vectors", []float64{1.0, 0.0}, []float64{-1.0, 0.0}, 2.0},
		{"B is scaled", []float64{1.0, 0.0}, []float64{5.0, 0.0}, 0.0},
		{"Empty vectors", []float64{}, []float64{}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDist(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineDist() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetricByName(t *testing.T) {
	a := []float64{1.0, 0.0}
	b := []float64{0.0, 2.0}

	tests := []struct {
		name string
		want float64
	}{
		{"", math.Sqrt(5)},
		{"euclidean", math.Sqrt(5)},
		{"cosine", 1.0},
	}
	for _, tt := range tests {
		m, err := MetricByName(tt.name)
		if err != nil {
			t.Fatalf("MetricByName(%q) returned error: %v", tt.name, err)
		}
		if got := m(a, b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MetricByName(%q)() = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := MetricByName("manhattan"); err == nil {
		t.Error("Expected an error for an unknown metric")
	}
}
