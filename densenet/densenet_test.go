package densenet_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/densenet/densenet"
)

func TestFacadeRoundTrip(t *testing.T) {
	n, err := densenet.New([]int{3, 4, 2}, densenet.WithSeed(3))
	require.NoError(t, err)
	n.Randomize()
	assert.Equal(t, densenet.ReLU, n.Layers()[0].Kind())
	assert.Equal(t, densenet.Softmax, n.Layers()[1].Kind())

	path := filepath.Join(t.TempDir(), "w.bin")
	require.NoError(t, n.Save(path))
	loaded, err := densenet.Load(path)
	require.NoError(t, err)

	in := []float64{0.3, 0.1, 0.9}
	want, err := n.Predict(in)
	require.NoError(t, err)
	got, err := loaded.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFacadeErrors(t *testing.T) {
	_, err := densenet.New([]int{3})
	assert.ErrorIs(t, err, densenet.ErrInvalidTopology)

	_, err = densenet.Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, densenet.ErrIO)

	a := densenet.NewMatrix(2, 3)
	_, err = a.Mul(densenet.NewMatrix(2, 3))
	assert.ErrorIs(t, err, densenet.ErrDimensionMismatch)
}
