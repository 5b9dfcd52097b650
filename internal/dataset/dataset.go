// Package dataset loads labelled samples for the network: CSV tables and
// MNIST-style IDX files, one-hot encoded and scaled to feature rows.
package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmpty is returned when a source holds no samples.
	ErrEmpty = errors.New("dataset: no samples")

	// ErrFormat reports content that cannot be parsed into samples.
	ErrFormat = errors.New("dataset: bad format")
)

// Dataset is a pair of equal-length collections: one feature row and one
// one-hot target row per sample.
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Inputs)
}

// Limit keeps at most n samples. n <= 0 keeps everything.
func (d *Dataset) Limit(n int) {
	if n <= 0 || n >= len(d.Inputs) {
		return
	}
	d.Inputs = d.Inputs[:n]
	d.Targets = d.Targets[:n]
}

// Normalize performs per-feature min-max normalization of the inputs to
// [0, 1]. Constant features become 0.
func (d *Dataset) Normalize() {
	if len(d.Inputs) == 0 {
		return
	}

	numFeatures := len(d.Inputs[0])
	lo := append([]float64(nil), d.Inputs[0]...)
	hi := append([]float64(nil), d.Inputs[0]...)
	for _, row := range d.Inputs[1:] {
		for i, v := range row {
			lo[i] = min(lo[i], v)
			hi[i] = max(hi[i], v)
		}
	}

	span := make([]float64, numFeatures)
	floats.SubTo(span, hi, lo)
	for _, row := range d.Inputs {
		for i := range row {
			if span[i] != 0 {
				row[i] = (row[i] - lo[i]) / span[i]
			} else {
				row[i] = 0
			}
		}
	}
}

// Scale divides every input value by s.
func (d *Dataset) Scale(s float64) {
	for _, row := range d.Inputs {
		floats.Scale(1/s, row)
	}
}

// Labels returns the class index of every target row.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.Targets))
	for i, t := range d.Targets {
		out[i] = floats.MaxIdx(t)
	}
	return out
}

// OneHot returns a row of length classes with a 1 at label.
func OneHot(label, classes int) ([]float64, error) {
	if label < 0 || label >= classes {
		return nil, fmt.Errorf("%w: label %d outside [0, %d)", ErrFormat, label, classes)
	}
	row := make([]float64, classes)
	row[label] = 1
	return row, nil
}
