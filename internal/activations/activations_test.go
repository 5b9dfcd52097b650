// Package activations provides unit tests for activation functions.
package activations

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// TestReLU tests ReLU activation and derivative.
func TestReLU(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input      float64
		expected   float64
		derivative float64
	}{
		{-1.0, 0.0, 0.0},
		{0.0, 0.0, 0.0}, // derivative at zero is 0 (x must be > 0)
		{1.0, 1.0, 1.0},
		{2.5, 2.5, 1.0},
		{-0.1, 0.0, 0.0},
	}

	for _, tt := range tests {
		if got := relu.Activate(tt.input); got != tt.expected {
			t.Errorf("ReLU(%v) = %v, want %v", tt.input, got, tt.expected)
		}
		if got := relu.Derivative(tt.input); got != tt.derivative {
			t.Errorf("ReLU.Derivative(%v) = %v, want %v", tt.input, got, tt.derivative)
		}
	}
}

// TestSigmoid tests Sigmoid activation.
func TestSigmoid(t *testing.T) {
	sigmoid := Sigmoid{}

	tests := []struct {
		input    float64
		expected float64
	}{
		{math.Inf(-1), 0.0},
		{-2.0, 1 / (1 + math.Exp(2))},
		{0.0, 0.5},
		{1.0, 1 / (1 + math.Exp(-1))},
		{math.Inf(1), 1.0},
	}

	for _, tt := range tests {
		output := sigmoid.Activate(tt.input)
		if math.Abs(output-tt.expected) > 1e-12 {
			t.Errorf("Sigmoid(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoidDerivative checks s(x)(1-s(x)) against a central difference.
func TestSigmoidDerivative(t *testing.T) {
	sigmoid := Sigmoid{}
	const h = 1e-6

	for _, x := range []float64{-3, -0.5, 0, 0.5, 3} {
		numeric := (sigmoid.Activate(x+h) - sigmoid.Activate(x-h)) / (2 * h)
		assert.InDelta(t, numeric, sigmoid.Derivative(x), 1e-8, "x=%v", x)
	}
	assert.Equal(t, 0.25, sigmoid.Derivative(0))
}

func TestSoftmaxColumnsSumToOne(t *testing.T) {
	z, err := matrix.FromSlice(3, 4, []float64{
		1, -1000, 0,
		2, 0, 0,
		3, 1000, 0,
		4, 1, 0,
	})
	require.NoError(t, err)

	s := SoftmaxColumns(z)
	require.Equal(t, 3, s.Width())
	require.Equal(t, 4, s.Height())

	for x := 0; x < s.Width(); x++ {
		col := s.ColumnAt(x)
		assert.InDelta(t, 1.0, floats.Sum(col), 1e-9, "column %d", x)
		for _, v := range col {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	// Uniform column stays uniform.
	for _, v := range s.ColumnAt(2) {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
	// Largest logit wins.
	assert.Equal(t, 3, s.ArgMaxColumn(0))
	assert.Equal(t, 2, s.ArgMaxColumn(1))
}

func TestSoftmaxIsShiftInvariant(t *testing.T) {
	a := matrix.Column([]float64{0.5, 1.5, -2})
	b := a.Apply(func(v float64) float64 { return v + 40 })
	assert.True(t, SoftmaxColumns(a).EqualApprox(SoftmaxColumns(b), 1e-12))
}

func TestKindDispatch(t *testing.T) {
	z := matrix.Column([]float64{-2, 0, 3})

	assert.Equal(t, []float64{0, 0, 3}, KindReLU.Activate(z).Values())

	d, ok := KindReLU.Derivative(z)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 1}, d.Values())

	d, ok = KindSigmoid.Derivative(z)
	require.True(t, ok)
	assert.InDelta(t, 0.25, d.At(0, 1), 1e-12)

	_, ok = KindSoftmax.Derivative(z)
	assert.False(t, ok)
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindSigmoid, KindReLU, KindSoftmax} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.True(t, k.Valid())
	}

	_, err := ParseKind("Tanh")
	assert.Error(t, err)
	assert.False(t, Kind(7).Valid())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
