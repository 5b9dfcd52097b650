// Package opt provides benchmarks for optimizers.
package opt

import (
	"testing"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// BenchmarkSGDStep benchmarks an SGD step on a 784x512 weight matrix.
func BenchmarkSGDStep(b *testing.B) {
	sgd := SGD{LearningRate: 0.01}
	params := matrix.Fill(784, 512, 0.5)
	gradients := matrix.Fill(784, 512, 0.01)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = sgd.Step(params, gradients)
	}
}
