// Package loss provides the output-layer objective and the evaluation cost.
package loss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// CrossEntropy is categorical cross-entropy composed with a softmax output.
type CrossEntropy struct{}

// Backward returns dL/dz for a softmax layer, which simplifies to
// (output - target). Both are batches with one sample per column.
func (CrossEntropy) Backward(output, target matrix.Matrix) (matrix.Matrix, error) {
	delta, err := output.Sub(target)
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("cross-entropy gradient: %w", err)
	}
	return delta, nil
}

// Forward computes the batch-averaged cross entropy
// -sum(target * log(output + eps)).
func (CrossEntropy) Forward(output, target matrix.Matrix) (float64, error) {
	if !output.SameShape(target) {
		return 0, fmt.Errorf("cross-entropy: %w", matrix.ErrShapeMismatch)
	}
	const eps = 1e-10
	p, y := output.Values(), target.Values()
	var sum float64
	for i := range p {
		// Clip prediction to avoid log(0)
		sum -= y[i] * math.Log(math.Max(p[i], eps))
	}
	if output.Width() == 0 {
		return 0, nil
	}
	return sum / float64(output.Width()), nil
}

// SquaredError is the per-sample evaluation cost: the squared differences
// summed over output dimensions, divided by the dimension count.
type SquaredError struct{}

// Forward computes (1/n) * sum((pred - target)^2).
func (SquaredError) Forward(pred, target []float64) (float64, error) {
	n := len(pred)
	if n != len(target) {
		return 0, fmt.Errorf("squared error: %w: %d predictions, %d targets", matrix.ErrShapeMismatch, n, len(target))
	}
	if n == 0 {
		return 0, nil
	}
	diff := make([]float64, n)
	floats.SubTo(diff, pred, target)
	return floats.Dot(diff, diff) / float64(n), nil
}
