// Package opt provides unit tests for optimizers and schedulers.
package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

func column(v ...float64) matrix.Matrix { return matrix.Column(v) }

// TestSGDStep tests SGD step computation.
func TestSGDStep(t *testing.T) {
	sgd := SGD{LearningRate: 0.1}

	params := column(1.0, 2.0, 3.0)
	gradients := column(0.1, 0.2, 0.3)

	updated, err := sgd.Step(params, gradients)
	require.NoError(t, err)

	// Expected: params - lr * gradients
	expected := []float64{
		1.0 - 0.1*0.1, // 0.99
		2.0 - 0.1*0.2, // 1.98
		3.0 - 0.1*0.3, // 2.97
	}

	for i, v := range updated.Values() {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("updated[%d] = %v, want %v", i, v, expected[i])
		}
	}
}

// TestSGDStepDoesNotModifyInput tests that Step leaves its operands alone.
func TestSGDStepDoesNotModifyInput(t *testing.T) {
	sgd := SGD{LearningRate: 0.1}
	params := column(1.0, 2.0)
	gradients := column(0.1, 0.1)

	_, err := sgd.Step(params, gradients)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.0}, params.Values())
	assert.Equal(t, []float64{0.1, 0.1}, gradients.Values())
}

// TestSGDZeroLearningRate tests that lr=0 is a no-op.
func TestSGDZeroLearningRate(t *testing.T) {
	params := column(1.0, -2.0)
	updated, err := SGD{}.Step(params, column(5, 5))
	require.NoError(t, err)
	assert.True(t, updated.Equal(params))
}

// TestSGDConvergence minimizes f(x) = x^2 with gradient 2x.
func TestSGDConvergence(t *testing.T) {
	sgd := SGD{LearningRate: 0.1}
	x := column(10.0)

	for i := 0; i < 100; i++ {
		var err error
		x, err = sgd.Step(x, x.Scale(2))
		require.NoError(t, err)
	}

	assert.InDelta(t, 0, x.At(0, 0), 1e-6)
}

func TestSGDShapeMismatch(t *testing.T) {
	_, err := SGD{LearningRate: 1}.Step(column(1, 2), column(1))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
}

func TestOptimizerInterface(t *testing.T) {
	var _ Optimizer = SGD{}
	var _ Scheduler = &StepLR{}
}

// TestStepLRDecaysEveryStepSize checks decay lands on epochs 10, 20, ...
func TestStepLRDecaysEveryStepSize(t *testing.T) {
	s := NewStepLR(10, 0.5, 1.0)

	for epoch := 1; epoch <= 25; epoch++ {
		s.Step()
		want := 1.0
		switch {
		case epoch >= 20:
			want = 0.25
		case epoch >= 10:
			want = 0.5
		}
		assert.Equal(t, want, s.LR(), "epoch %d", epoch)
	}
	assert.Equal(t, 25, s.Epoch())
}

func TestStepLRDisabled(t *testing.T) {
	s := NewStepLR(0, 0.1, 0.3)
	for i := 0; i < 50; i++ {
		s.Step()
	}
	assert.Equal(t, 0.3, s.LR())
}
