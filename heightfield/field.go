// Package heightfield holds the square elevation grid shared by every
// generation and erosion stage, along with sampling and normalization
// helpers.
package heightfield

import (
	"fmt"
	"math"
)

// Field is a square grid of elevations stored row-major. Values are
// unbounded until a stage normalizes them, after which they lie in [0,1].
type Field struct {
	Size int
	Data []float64
}

// New allocates a zero-filled field of the given edge length.
func New(size int) (*Field, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heightfield: size must be positive, got %d", size)
	}
	return &Field{Size: size, Data: make([]float64, size*size)}, nil
}

// NewConstant allocates a field with every cell set to value.
func NewConstant(size int, value float64) (*Field, error) {
	f, err := New(size)
	if err != nil {
		return nil, err
	}
	for i := range f.Data {
		f.Data[i] = value
	}
	return f, nil
}

// Index returns the linear slice index for coordinates (x, y).
func (f *Field) Index(x, y int) int { return y*f.Size + x }

// At returns the elevation at (x, y).
func (f *Field) At(x, y int) float64 { return f.Data[y*f.Size+x] }

// Set writes the elevation at (x, y).
func (f *Field) Set(x, y int, v float64) { f.Data[y*f.Size+x] = v }

// In reports whether (x, y) addresses a cell of the grid.
func (f *Field) In(x, y int) bool {
	return x >= 0 && x < f.Size && y >= 0 && y < f.Size
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	return &Field{Size: f.Size, Data: data}
}

// MinMax returns the smallest and largest elevation in the field.
func (f *Field) MinMax() (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range f.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Sum returns the total elevation over all cells.
func (f *Field) Sum() float64 {
	var total float64
	for _, v := range f.Data {
		total += v
	}
	return total
}

// Normalize rescales the field to [0,1] by global min/max. A flat field
// has no usable range and is filled with the constant 0.5 instead.
func (f *Field) Normalize() {
	min, max := f.MinMax()
	if max <= min {
		for i := range f.Data {
			f.Data[i] = 0.5
		}
		return
	}
	span := max - min
	for i := range f.Data {
		f.Data[i] = (f.Data[i] - min) / span
	}
}

// Stats summarizes a field for reporting.
type Stats struct {
	Min, Max, Mean, StdDev float64
}

// Summarize computes min/max/mean/standard deviation over the field.
func (f *Field) Summarize() Stats {
	min, max := f.MinMax()
	n := float64(len(f.Data))
	mean := f.Sum() / n
	var variance float64
	for _, v := range f.Data {
		d := v - mean
		variance += d * d
	}
	variance /= n
	return Stats{Min: min, Max: max, Mean: mean, StdDev: math.Sqrt(variance)}
}
