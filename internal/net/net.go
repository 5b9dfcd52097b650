// Package net provides the feed-forward network: topology, propagation,
// the mini-batch training loop and weight persistence.
package net

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/layer"
	"github.com/FlavioCFOliveira/densenet/internal/loss"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

var (
	// ErrShapeMismatch reports samples or batches whose shape does not fit
	// the network. It is the same value as matrix.ErrShapeMismatch.
	ErrShapeMismatch = matrix.ErrShapeMismatch

	// ErrInvalidTopology reports an unusable widths configuration.
	ErrInvalidTopology = errors.New("net: invalid topology")

	// ErrInvalidConfig reports out-of-range training hyperparameters.
	ErrInvalidConfig = errors.New("net: invalid training config")

	// ErrNoForward is returned by Backward before any Forward call.
	ErrNoForward = errors.New("net: backward called before forward")

	// ErrNoGradient is returned by Update before any Backward call.
	ErrNoGradient = errors.New("net: update called before backward")
)

// Network is a linear stack of dense layers: ReLU on every interior layer
// and Softmax on the output layer.
//
// A Network is not safe for concurrent use. Distinct Networks share no
// state and may be used from different goroutines.
type Network struct {
	widths []int
	layers []*layer.Dense

	rng    *rand.Rand
	logger *log.Logger

	// Results of the most recent Forward and Backward calls.
	passes []layer.Pass
	grads  []layer.Gradient
	output matrix.Matrix
}

// Option configures a Network.
type Option func(*Network)

// WithSeed makes weight initialization and shuffling deterministic.
func WithSeed(seed uint64) Option {
	return func(n *Network) {
		n.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand uses r for weight initialization and shuffling.
func WithRand(r *rand.Rand) Option {
	return func(n *Network) {
		n.rng = r
	}
}

// WithLogger sends training progress to l. The default discards it.
func WithLogger(l *log.Logger) Option {
	return func(n *Network) {
		n.logger = l
	}
}

// New builds a network from a widths configuration: widths[0] is the input
// width and every following entry is the output width of one layer.
// Parameters start at zero; call Randomize or Train before use.
func New(widths []int, opts ...Option) (*Network, error) {
	if len(widths) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 widths, got %d", ErrInvalidTopology, len(widths))
	}
	for i, w := range widths {
		if w <= 0 {
			return nil, fmt.Errorf("%w: width[%d] = %d", ErrInvalidTopology, i, w)
		}
	}

	n := &Network{
		widths: append([]int(nil), widths...),
		layers: make([]*layer.Dense, 0, len(widths)-1),
		logger: log.New(io.Discard, "", 0),
	}
	last := len(widths) - 2
	for i := 0; i <= last; i++ {
		kind := activations.KindReLU
		if i == last {
			kind = activations.KindSoftmax
		}
		n.layers = append(n.layers, layer.NewDense(widths[i], widths[i+1], kind))
	}

	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return n, nil
}

// Randomize re-initializes every layer's parameters.
func (n *Network) Randomize() {
	for _, l := range n.layers {
		l.InitRandom(n.rng)
	}
	n.passes, n.grads = nil, nil
}

// Forward pipes a batch (InputWidth rows, one sample per column) through
// every layer and returns the output batch.
func (n *Network) Forward(input matrix.Matrix) (matrix.Matrix, error) {
	passes := make([]layer.Pass, len(n.layers))
	curr := input
	for i, l := range n.layers {
		p, err := l.Forward(curr)
		if err != nil {
			return matrix.Matrix{}, fmt.Errorf("layer %d: %w", i, err)
		}
		passes[i] = p
		curr = p.Activation
	}
	n.passes = passes
	n.output = curr
	return curr, nil
}

// Backward seeds the output layer with output - target and propagates the
// delta back to the first layer. It uses the batch of the last Forward.
func (n *Network) Backward(target matrix.Matrix) error {
	if n.passes == nil {
		return ErrNoForward
	}
	delta, err := loss.CrossEntropy{}.Backward(n.output, target)
	if err != nil {
		return err
	}

	grads := make([]layer.Gradient, len(n.layers))
	last := len(n.layers) - 1
	g, err := n.layers[last].SeedDelta(n.passes[last], delta)
	if err != nil {
		return fmt.Errorf("layer %d: %w", last, err)
	}
	grads[last] = g

	for i := last - 1; i >= 0; i-- {
		g, err = n.layers[i].Backward(n.passes[i], n.layers[i+1].Weights(), g.Delta)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		grads[i] = g
	}
	n.grads = grads
	return nil
}

// Update applies the gradients of the last Backward to every layer.
func (n *Network) Update(learningRate float64) error {
	if n.grads == nil {
		return ErrNoGradient
	}
	for i, l := range n.layers {
		if err := l.Update(n.grads[i], learningRate); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Predict runs a single sample and returns the class probabilities.
func (n *Network) Predict(features []float64) ([]float64, error) {
	if len(features) != n.InputWidth() {
		return nil, fmt.Errorf("%w: %d features for input width %d", ErrShapeMismatch, len(features), n.InputWidth())
	}
	out, err := n.Forward(matrix.Column(features))
	if err != nil {
		return nil, err
	}
	return out.ColumnAt(0), nil
}

// Widths returns a copy of the widths configuration.
func (n *Network) Widths() []int {
	return append([]int(nil), n.widths...)
}

// InputWidth returns widths[0].
func (n *Network) InputWidth() int {
	return n.widths[0]
}

// OutputWidth returns the width of the last layer.
func (n *Network) OutputWidth() int {
	return n.widths[len(n.widths)-1]
}

// Layers returns the network's layers in order.
func (n *Network) Layers() []*layer.Dense {
	return n.layers
}

// Output returns the batch produced by the last Forward call.
func (n *Network) Output() matrix.Matrix {
	return n.output
}

// Gradients returns the per-layer gradients of the last Backward call.
func (n *Network) Gradients() []layer.Gradient {
	return n.grads
}

// ParamCount returns the number of weights and biases.
func (n *Network) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		total += l.InSize()*l.OutSize() + l.OutSize()
	}
	return total
}
