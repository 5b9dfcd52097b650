// Package activations provides the closed set of layer nonlinearities.
package activations

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// Function is a scalar activation with its derivative.
type Function interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes 1 / (1 + e^-x)
func (Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (Sigmoid) Derivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

// SoftmaxColumns normalizes every column of z independently: the column
// maximum is subtracted before exponentiating, then each value is divided
// by the column sum.
func SoftmaxColumns(z matrix.Matrix) matrix.Matrix {
	out := matrix.New(z.Width(), z.Height())
	if z.Height() == 0 {
		return out
	}
	for x := 0; x < z.Width(); x++ {
		col := z.ColumnAt(x)
		maxVal := floats.Max(col)
		for i, v := range col {
			col[i] = math.Exp(v - maxVal)
		}
		floats.Scale(1/floats.Sum(col), col)
		// SetColumn cannot fail: col has z.Height() entries.
		_ = out.SetColumn(x, col)
	}
	return out
}

// Kind tags the activation a layer applies.
type Kind int

// Supported activation kinds.
const (
	KindSigmoid Kind = iota
	KindReLU
	KindSoftmax
)

type entry struct {
	name       string
	activate   func(matrix.Matrix) matrix.Matrix
	derivative func(matrix.Matrix) matrix.Matrix // nil for Softmax
}

func elementwise(f func(float64) float64) func(matrix.Matrix) matrix.Matrix {
	return func(z matrix.Matrix) matrix.Matrix { return z.Apply(f) }
}

var table = [...]entry{
	KindSigmoid: {
		name:       "Sigmoid",
		activate:   elementwise(Sigmoid{}.Activate),
		derivative: elementwise(Sigmoid{}.Derivative),
	},
	KindReLU: {
		name:       "ReLU",
		activate:   elementwise(ReLU{}.Activate),
		derivative: elementwise(ReLU{}.Derivative),
	},
	KindSoftmax: {
		name:     "Softmax",
		activate: SoftmaxColumns,
	},
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(table)
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return table[k].name
}

// ParseKind returns the Kind named s ("Sigmoid", "ReLU" or "Softmax").
func ParseKind(s string) (Kind, error) {
	for k, e := range table {
		if e.name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("activations: unknown kind %q", s)
}

// Activate applies the nonlinearity to a batch of pre-activations, one
// sample per column.
func (k Kind) Activate(z matrix.Matrix) matrix.Matrix {
	return table[k].activate(z)
}

// Derivative returns f'(z) elementwise. ok is false for Softmax, whose
// gradient is only ever taken in closed form together with cross-entropy.
func (k Kind) Derivative(z matrix.Matrix) (d matrix.Matrix, ok bool) {
	f := table[k].derivative
	if f == nil {
		return matrix.Matrix{}, false
	}
	return f(z), true
}
