// Package densenet is the importable entry point: it re-exports the network,
// its training types and the dataset loaders.
package densenet

import (
	"io"

	"github.com/FlavioCFOliveira/densenet/internal/activations"
	"github.com/FlavioCFOliveira/densenet/internal/dataset"
	"github.com/FlavioCFOliveira/densenet/internal/layer"
	"github.com/FlavioCFOliveira/densenet/internal/matrix"
	"github.com/FlavioCFOliveira/densenet/internal/net"
)

// Re-export common types and functions for easier access
type (
	Network     = net.Network
	Option      = net.Option
	TrainConfig = net.TrainConfig
	TrainResult = net.TrainResult
	EpochStats  = net.EpochStats
	Matrix      = matrix.Matrix
	Layer       = layer.Dense
	Activation  = activations.Kind
	Dataset     = dataset.Dataset
	CSVOptions  = dataset.CSVOptions
)

// Activations
const (
	Sigmoid = activations.KindSigmoid
	ReLU    = activations.KindReLU
	Softmax = activations.KindSoftmax
)

// Errors
var (
	ErrShapeMismatch     = net.ErrShapeMismatch
	ErrDimensionMismatch = matrix.ErrDimensionMismatch
	ErrInvalidTopology   = net.ErrInvalidTopology
	ErrInvalidConfig     = net.ErrInvalidConfig
	ErrIO                = net.ErrIO
	ErrMalformed         = net.ErrMalformed
)

// Options
var (
	WithSeed   = net.WithSeed
	WithRand   = net.WithRand
	WithLogger = net.WithLogger
)

// New builds a network from a widths configuration.
func New(widths []int, opts ...Option) (*Network, error) {
	return net.New(widths, opts...)
}

// Model persistence
func Load(filename string, opts ...Option) (*Network, error) {
	return net.Load(filename, opts...)
}

func Decode(r io.Reader, opts ...Option) (*Network, error) {
	return net.Decode(r, opts...)
}

// Matrices
func NewMatrix(width, height int) Matrix {
	return matrix.New(width, height)
}

func MatrixFromSlice(width, height int, values []float64) (Matrix, error) {
	return matrix.FromSlice(width, height, values)
}

// Callbacks
type Callback = net.Callback

func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, threshold float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, threshold)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

// Datasets
func LoadCSV(filename string, opts CSVOptions) (*Dataset, error) {
	return dataset.LoadCSV(filename, opts)
}

func LoadIDX(imagesPath, labelsPath string, classes int) (*Dataset, error) {
	return dataset.LoadIDX(imagesPath, labelsPath, classes)
}
