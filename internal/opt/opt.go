// Package opt provides the parameter update rule and learning-rate schedules.
package opt

import (
	"fmt"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// Optimizer updates a parameter matrix from its gradient.
type Optimizer interface {
	// Step returns the updated parameters. Neither argument is modified.
	Step(params, gradients matrix.Matrix) (matrix.Matrix, error)
}

// SGD (Stochastic Gradient Descent) optimizer without momentum.
type SGD struct {
	LearningRate float64
}

// Step computes params - lr * gradients.
func (s SGD) Step(params, gradients matrix.Matrix) (matrix.Matrix, error) {
	updated, err := params.Sub(gradients.Scale(s.LearningRate))
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("sgd step: %w", err)
	}
	return updated, nil
}
