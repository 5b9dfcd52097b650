package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneHot(t *testing.T) {
	row, err := OneHot(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 0}, row)

	_, err = OneHot(4, 4)
	assert.ErrorIs(t, err, ErrFormat)
	_, err = OneHot(-1, 4)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadCSV(t *testing.T) {
	src := "a,b,label\n1,2,0\n3,4,2\n"
	d, err := ReadCSV(strings.NewReader(src), CSVOptions{LabelColumn: -1, Classes: 3, HasHeader: true})
	require.NoError(t, err)

	require.Equal(t, 2, d.Len())
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, d.Inputs)
	assert.Equal(t, [][]float64{{1, 0, 0}, {0, 0, 1}}, d.Targets)
	assert.Equal(t, []int{0, 2}, d.Labels())
}

func TestReadCSVLabelFirstWithScale(t *testing.T) {
	src := "1,255,0\n0,51,102\n"
	d, err := ReadCSV(strings.NewReader(src), CSVOptions{LabelColumn: 0, Classes: 2, Scale: 255})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 0}, d.Inputs[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.2, 0.4}, d.Inputs[1], 1e-12)
	assert.Equal(t, []float64{0, 1}, d.Targets[0])
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts CSVOptions
		want error
	}{
		{"header only", "a,b\n", CSVOptions{Classes: 2, HasHeader: true}, ErrEmpty},
		{"empty", "", CSVOptions{Classes: 2}, ErrEmpty},
		{"no classes", "1,0\n", CSVOptions{}, ErrFormat},
		{"bad value", "x,0\n", CSVOptions{LabelColumn: 1, Classes: 2}, ErrFormat},
		{"bad label", "1,0.5\n", CSVOptions{LabelColumn: 1, Classes: 2}, ErrFormat},
		{"label out of range", "1,7\n", CSVOptions{LabelColumn: 1, Classes: 2}, ErrFormat},
		{"label column out of range", "1,0\n", CSVOptions{LabelColumn: 5, Classes: 2}, ErrFormat},
		{"single column", "1\n", CSVOptions{Classes: 2}, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.src), tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("0.5,1\n0.25,0\n"), 0o644))

	d, err := LoadCSV(path, CSVOptions{LabelColumn: -1, Classes: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{Classes: 2})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	d := &Dataset{
		Inputs:  [][]float64{{0, 5, 10}, {10, 5, 20}, {5, 5, 15}},
		Targets: [][]float64{{1}, {1}, {1}},
	}
	d.Normalize()

	assert.Equal(t, []float64{0, 0, 0}, d.Inputs[0])
	assert.Equal(t, []float64{1, 0, 1}, d.Inputs[1])
	assert.Equal(t, []float64{0.5, 0, 0.5}, d.Inputs[2])
}

func TestLimit(t *testing.T) {
	d := &Dataset{
		Inputs:  [][]float64{{1}, {2}, {3}},
		Targets: [][]float64{{1}, {1}, {1}},
	}
	d.Limit(0)
	assert.Equal(t, 3, d.Len())
	d.Limit(2)
	assert.Equal(t, 2, d.Len())
	assert.Len(t, d.Targets, 2)
}

func idxImages(t *testing.T, rows, cols int, images ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := []uint32{idxImagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, hdr))
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func TestReadIDX(t *testing.T) {
	images := idxImages(t, 2, 2, []byte{0, 255, 51, 0}, []byte{255, 255, 0, 0})
	labels := idxLabels(t, 3, 1)

	d, err := ReadIDX(bytes.NewReader(images), bytes.NewReader(labels), 10)
	require.NoError(t, err)

	require.Equal(t, 2, d.Len())
	assert.InDeltaSlice(t, []float64{0, 1, 0.2, 0}, d.Inputs[0], 1e-12)
	assert.Equal(t, []int{3, 1}, d.Labels())
	assert.Len(t, d.Targets[0], 10)
}

func TestReadIDXErrors(t *testing.T) {
	images := idxImages(t, 1, 2, []byte{1, 2})

	_, err := ReadIDX(bytes.NewReader(images), bytes.NewReader(idxLabels(t, 0, 1)), 10)
	assert.ErrorIs(t, err, ErrFormat, "count mismatch")

	_, err = ReadIDX(bytes.NewReader(idxLabels(t, 0)), bytes.NewReader(idxLabels(t, 0)), 10)
	assert.ErrorIs(t, err, ErrFormat, "wrong magic")

	_, err = ReadIDX(bytes.NewReader(images[:len(images)-1]), bytes.NewReader(idxLabels(t, 0)), 10)
	assert.ErrorIs(t, err, ErrFormat, "truncated")

	_, err = ReadIDX(bytes.NewReader(images), bytes.NewReader(idxLabels(t, 12)), 10)
	assert.ErrorIs(t, err, ErrFormat, "label out of range")

	_, err = ReadIDX(bytes.NewReader(idxImages(t, 1, 1)), bytes.NewReader(idxLabels(t)), 10)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadIDXGzip(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "images.idx3-ubyte.gz")
	lblPath := filepath.Join(dir, "labels.idx1-ubyte")

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(idxImages(t, 1, 3, []byte{0, 0, 255}))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(imgPath, gz.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(lblPath, idxLabels(t, 1), 0o644))

	d, err := LoadIDX(imgPath, lblPath, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 1}}, d.Inputs)
	assert.Equal(t, [][]float64{{0, 1}}, d.Targets)
}

func TestCenterDigit(t *testing.T) {
	// 2x2 blob in the top-left corner of a 6x6 image.
	px := make([]float64, 36)
	px[0], px[1], px[6], px[7] = 1, 1, 1, 1

	out, err := CenterDigit(px, 6, 6, 4)
	require.NoError(t, err)

	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := 0.0
			if x >= 2 && x <= 3 && y >= 2 && y <= 3 {
				want = 1
			}
			assert.Equal(t, want, out[y*6+x], "pixel %d,%d", x, y)
		}
	}
}

func TestCenterDigitShrinks(t *testing.T) {
	// Full 8x8 image fitted into a 4x4 box: every 2x2 block averages.
	px := make([]float64, 64)
	for i := range px {
		if (i/8)%2 == 0 {
			px[i] = 1
		}
	}
	out, err := CenterDigit(px, 8, 8, 4)
	require.NoError(t, err)

	sum := 0.0
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			assert.InDelta(t, 0.5, out[y*8+x], 1e-12)
			sum += out[y*8+x]
		}
	}
	assert.InDelta(t, 8.0, sum, 1e-12)
	assert.Zero(t, out[0])
}

func TestCenterDigitBlankAndErrors(t *testing.T) {
	out, err := CenterDigit(make([]float64, 9), 3, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 9), out)

	_, err = CenterDigit(make([]float64, 8), 3, 3, 2)
	assert.ErrorIs(t, err, ErrFormat)
}
