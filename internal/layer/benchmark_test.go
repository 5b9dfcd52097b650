// Package layer provides benchmarks for the dense layer.
package layer

import (
	"math/rand/v2"
	"testing"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// randomBatch returns an in x batch matrix of values in [0, 1).
func randomBatch(rng *rand.Rand, in, batch int) matrix.Matrix {
	m := matrix.New(batch, in)
	for y := 0; y < in; y++ {
		for x := 0; x < batch; x++ {
			m.Set(x, y, rng.Float64())
		}
	}
	return m
}

// BenchmarkDenseForward benchmarks the forward pass of a 784->256 layer.
func BenchmarkDenseForward(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	layer := NewDense(784, 256, activations.KindReLU)
	layer.InitRandom(rng)
	input := randomBatch(rng, 784, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = layer.Forward(input)
	}
}

// BenchmarkDenseFull benchmarks forward, backward and update together.
func BenchmarkDenseFull(b *testing.B) {
	rng := rand.New(rand.NewPCG(2, 2))
	layer := NewDense(784, 256, activations.KindReLU)
	layer.InitRandom(rng)
	next := NewDense(256, 10, activations.KindSoftmax)
	next.InitRandom(rng)
	input := randomBatch(rng, 784, 50)
	nextDelta := randomBatch(rng, 10, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pass, _ := layer.Forward(input)
		g, _ := layer.Backward(pass, next.Weights(), nextDelta)
		_ = layer.Update(g, 0.01)
	}
}
