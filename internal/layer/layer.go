// Package layer provides the dense layer used by the network.
package layer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/opt"
)

// Pass is what a forward call saw and produced. Backward needs it to
// compute gradients, so the caller hands it back instead of the layer
// caching it.
type Pass struct {
	Input         matrix.Matrix // inSize x batch
	PreActivation matrix.Matrix // outSize x batch, W*x + b
	Activation    matrix.Matrix // outSize x batch, f(W*x + b)
}

// BatchSize returns the number of samples (columns) in the pass.
func (p Pass) BatchSize() int {
	return p.Input.Width()
}

// Gradient holds a layer's error signal and batch-averaged parameter
// gradients for one backward call.
type Gradient struct {
	Delta   matrix.Matrix // outSize x batch
	Weights matrix.Matrix // same shape as the layer weights
	Bias    matrix.Matrix // outSize x 1
}

// Dense is a fully connected layer.
//
// Weights have one row per output node and one column per input node, so a
// batch with one sample per column is propagated as W * input.
type Dense struct {
	weights matrix.Matrix
	biases  matrix.Matrix
	kind    activations.Kind
	inSize  int
	outSize int
}

// NewDense creates a dense layer with zero weights and biases. Call
// InitRandom before training. It panics if kind is not a supported
// activation.
func NewDense(in, out int, kind activations.Kind) *Dense {
	if !kind.Valid() {
		panic(fmt.Sprintf("layer: unsupported activation %v", kind))
	}
	return &Dense{
		weights: matrix.New(in, out),
		biases:  matrix.New(1, out),
		kind:    kind,
		inSize:  in,
		outSize: out,
	}
}

// InitLimit returns the half-width L of the uniform [-L, L] range used for
// this layer's weights.
func (d *Dense) InitLimit() float64 {
	switch d.kind {
	case activations.KindSigmoid:
		// Xavier/Glorot
		return math.Sqrt(6 / float64(d.inSize+d.outSize))
	case activations.KindReLU:
		return math.Sqrt(6 / float64(d.inSize))
	default:
		return 0.5
	}
}

// InitRandom draws every weight independently from U(-L, L) using rng and
// zeroes the biases.
func (d *Dense) InitRandom(rng *rand.Rand) {
	limit := d.InitLimit()
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: rng}

	w := matrix.New(d.inSize, d.outSize)
	for y := 0; y < d.outSize; y++ {
		for x := 0; x < d.inSize; x++ {
			w.Set(x, y, dist.Rand())
		}
	}
	d.weights = w
	d.biases = matrix.New(1, d.outSize)
}

// Forward propagates a batch (inSize rows, one sample per column).
func (d *Dense) Forward(input matrix.Matrix) (Pass, error) {
	z, err := d.weights.Mul(input)
	if err != nil {
		return Pass{}, fmt.Errorf("dense forward: %w", err)
	}
	z, err = z.AddColumn(d.biases)
	if err != nil {
		return Pass{}, fmt.Errorf("dense forward: %w", err)
	}
	return Pass{
		Input:         input,
		PreActivation: z,
		Activation:    d.kind.Activate(z),
	}, nil
}

// Backward computes this layer's gradient from the weights and delta of the
// layer that follows it.
func (d *Dense) Backward(pass Pass, nextWeights, nextDelta matrix.Matrix) (Gradient, error) {
	if d.kind == activations.KindSoftmax {
		// Softmax is only differentiated together with cross-entropy, which
		// already produced the delta.
		return d.SeedDelta(pass, nextDelta)
	}

	raw, err := nextWeights.Transpose().Mul(nextDelta)
	if err != nil {
		return Gradient{}, fmt.Errorf("dense backward: %w", err)
	}
	deriv, _ := d.kind.Derivative(pass.PreActivation)
	delta, err := raw.Hadamard(deriv)
	if err != nil {
		return Gradient{}, fmt.Errorf("dense backward: %w", err)
	}
	return d.gradients(pass, delta)
}

// SeedDelta computes gradients from a delta used as-is. The network calls
// it on the output layer with output - target.
func (d *Dense) SeedDelta(pass Pass, delta matrix.Matrix) (Gradient, error) {
	return d.gradients(pass, delta)
}

func (d *Dense) gradients(pass Pass, delta matrix.Matrix) (Gradient, error) {
	if delta.Height() != d.outSize || delta.Width() != pass.BatchSize() {
		return Gradient{}, fmt.Errorf("dense gradients: %w: delta %dx%d for %d outputs and batch %d",
			matrix.ErrShapeMismatch, delta.Width(), delta.Height(), d.outSize, pass.BatchSize())
	}
	gw, err := delta.Mul(pass.Input.Transpose())
	if err != nil {
		return Gradient{}, fmt.Errorf("dense gradients: %w", err)
	}
	return Gradient{
		Delta:   delta,
		Weights: gw.Div(float64(pass.BatchSize())),
		Bias:    delta.RowMeans(),
	}, nil
}

// Update applies one plain gradient descent step:
// W -= gradW * lr, b -= gradB * lr.
func (d *Dense) Update(g Gradient, learningRate float64) error {
	sgd := opt.SGD{LearningRate: learningRate}
	w, err := sgd.Step(d.weights, g.Weights)
	if err != nil {
		return fmt.Errorf("dense update weights: %w", err)
	}
	b, err := sgd.Step(d.biases, g.Bias)
	if err != nil {
		return fmt.Errorf("dense update biases: %w", err)
	}
	d.weights, d.biases = w, b
	return nil
}

// Weights returns a copy of the weight matrix (inSize wide, outSize high).
func (d *Dense) Weights() matrix.Matrix {
	return d.weights.Clone()
}

// Biases returns a copy of the bias column.
func (d *Dense) Biases() matrix.Matrix {
	return d.biases.Clone()
}

// SetWeights replaces the weights with a copy of w.
func (d *Dense) SetWeights(w matrix.Matrix) error {
	if w.Width() != d.inSize || w.Height() != d.outSize {
		return fmt.Errorf("set weights: %w: got %dx%d, want %dx%d",
			matrix.ErrShapeMismatch, w.Width(), w.Height(), d.inSize, d.outSize)
	}
	d.weights = w.Clone()
	return nil
}

// SetBiases replaces the biases with a copy of b.
func (d *Dense) SetBiases(b matrix.Matrix) error {
	if b.Width() != 1 || b.Height() != d.outSize {
		return fmt.Errorf("set biases: %w: got %dx%d, want 1x%d",
			matrix.ErrShapeMismatch, b.Width(), b.Height(), d.outSize)
	}
	d.biases = b.Clone()
	return nil
}

// SetWeight sets the weight from input col to output row.
func (d *Dense) SetWeight(row, col int, val float64) {
	d.weights.Set(col, row, val)
}

// GetWeight gets the weight from input col to output row.
func (d *Dense) GetWeight(row, col int) float64 {
	return d.weights.At(col, row)
}

// SetBias sets a single bias.
func (d *Dense) SetBias(idx int, val float64) {
	d.biases.Set(0, idx, val)
}

// GetBias gets a single bias.
func (d *Dense) GetBias(idx int) float64 {
	return d.biases.At(0, idx)
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Kind returns the activation applied by this layer.
func (d *Dense) Kind() activations.Kind {
	return d.kind
}
