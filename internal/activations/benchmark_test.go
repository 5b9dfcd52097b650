// Package activations provides benchmarks for activation functions.
package activations

import (
	"math/rand/v2"
	"testing"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// randomBatch returns a height x width batch of values in [-4, 4).
func randomBatch(width, height int) matrix.Matrix {
	rng := rand.New(rand.NewPCG(11, 12))
	m := matrix.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, rng.Float64()*8-4)
		}
	}
	return m
}

// BenchmarkReLUActivate benchmarks ReLU over a 512x50 batch.
func BenchmarkReLUActivate(b *testing.B) {
	z := randomBatch(50, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		KindReLU.Activate(z)
	}
}

// BenchmarkSigmoidFull benchmarks Sigmoid activation and derivative.
func BenchmarkSigmoidFull(b *testing.B) {
	z := randomBatch(50, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		KindSigmoid.Activate(z)
		KindSigmoid.Derivative(z)
	}
}

// BenchmarkSoftmaxColumns benchmarks the output-layer softmax.
func BenchmarkSoftmaxColumns(b *testing.B) {
	z := randomBatch(50, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SoftmaxColumns(z)
	}
}
