package net

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/densenet/internal/matrix"
)

// Weight file layout, host byte order, no header:
//
//	uint64             L, the number of widths
//	int32 x L          widths, input first
//	for each of the L-1 layers:
//	    float64 x out*in   weights, row-major (one row per output node)
//	    float64 x out      biases
//
// The integer widths match a 64-bit size_t and a 32-bit int, so files are
// only portable between hosts that agree on those and on endianness.

var (
	// ErrIO wraps failures to open, read or write a weight file.
	ErrIO = errors.New("net: weight file i/o")

	// ErrMalformed reports a weight file whose header cannot describe a
	// network.
	ErrMalformed = errors.New("net: malformed weight file")
)

// Bounds on decoded headers, checked before any layer is allocated.
const (
	maxWidth  = 1 << 24
	maxParams = 1 << 28 // 2 GiB of float64
)

var byteOrder = binary.NativeEndian

// Save writes the widths and all parameters to path.
func (n *Network) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := n.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Encode writes the widths and all parameters to w.
func (n *Network) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	widths := make([]int32, len(n.widths))
	for i, v := range n.widths {
		widths[i] = int32(v)
	}
	if err := binary.Write(bw, byteOrder, uint64(len(widths))); err != nil {
		return fmt.Errorf("%w: write width count: %w", ErrIO, err)
	}
	if err := binary.Write(bw, byteOrder, widths); err != nil {
		return fmt.Errorf("%w: write widths: %w", ErrIO, err)
	}
	for i, l := range n.layers {
		if err := binary.Write(bw, byteOrder, l.Weights().Values()); err != nil {
			return fmt.Errorf("%w: write layer %d weights: %w", ErrIO, i, err)
		}
		if err := binary.Write(bw, byteOrder, l.Biases().Values()); err != nil {
			return fmt.Errorf("%w: write layer %d biases: %w", ErrIO, i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Load reads a network written by Save. The topology comes from the file;
// opts configure the returned network as in New.
func Load(path string, opts ...Option) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return decode(f, info.Size(), opts)
}

// Decode reads a network written by Encode. On any error no network is
// returned.
func Decode(r io.Reader, opts ...Option) (*Network, error) {
	return decode(r, -1, opts)
}

// decode checks the header against size, the total byte count of r, when
// size is not negative.
func decode(r io.Reader, size int64, opts []Option) (*Network, error) {
	br := bufio.NewReader(r)

	var count uint64
	if err := binary.Read(br, byteOrder, &count); err != nil {
		return nil, fmt.Errorf("%w: read width count: %w", ErrIO, err)
	}
	if count < 2 || count > 1<<16 {
		return nil, fmt.Errorf("%w: width count %d", ErrMalformed, count)
	}

	raw := make([]int32, count)
	if err := binary.Read(br, byteOrder, raw); err != nil {
		return nil, fmt.Errorf("%w: read widths: %w", ErrIO, err)
	}
	widths := make([]int, count)
	for i, v := range raw {
		if v <= 0 || v > maxWidth {
			return nil, fmt.Errorf("%w: width[%d] = %d", ErrMalformed, i, v)
		}
		widths[i] = int(v)
	}

	params, err := paramCount(widths)
	if err != nil {
		return nil, err
	}
	if need := 8 + 4*int64(count) + 8*params; size >= 0 && size < need {
		return nil, fmt.Errorf("%w: widths %v need %d bytes, file has %d: %w", ErrIO, widths, need, size, io.ErrUnexpectedEOF)
	}

	n, err := New(widths, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i, l := range n.layers {
		in, out := l.InSize(), l.OutSize()

		wv := make([]float64, in*out)
		if err := binary.Read(br, byteOrder, wv); err != nil {
			return nil, fmt.Errorf("%w: read layer %d weights: %w", ErrIO, i, err)
		}
		w, err := matrix.FromSlice(in, out, wv)
		if err != nil {
			return nil, err
		}
		if err := l.SetWeights(w); err != nil {
			return nil, err
		}

		bv := make([]float64, out)
		if err := binary.Read(br, byteOrder, bv); err != nil {
			return nil, fmt.Errorf("%w: read layer %d biases: %w", ErrIO, i, err)
		}
		if err := l.SetBiases(matrix.Column(bv)); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// paramCount returns the number of weights and biases widths describe, or
// ErrMalformed once it passes maxParams.
func paramCount(widths []int) (int64, error) {
	var total int64
	for i := 1; i < len(widths); i++ {
		total += int64(widths[i-1])*int64(widths[i]) + int64(widths[i])
		if total > maxParams {
			return 0, fmt.Errorf("%w: widths %v exceed %d parameters", ErrMalformed, widths, maxParams)
		}
	}
	return total, nil
}
