// Package matrix provides a dense two-dimensional float64 matrix with the
// algebra needed by the network layers.
//
// A Matrix is width columns by height rows stored row-major in one slice:
// At(x, y) reads column x of row y at offset y*width+x. Operators never
// mutate their operands; every result owns a freshly allocated buffer, so
// row kernels can run concurrently without synchronization.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/densenet/internal/parallel"
)

var (
	// ErrShapeMismatch is returned by elementwise operators when the operands
	// do not share width and height.
	ErrShapeMismatch = errors.New("matrix: shape mismatch")

	// ErrDimensionMismatch is returned by Mul when the left width differs
	// from the right height.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")
)

// Matrix is a dense width x height grid of float64 values.
// The zero value is an empty 0x0 matrix.
type Matrix struct {
	width  int
	height int
	values []float64
}

// New returns a zero-filled matrix with the given width (columns) and
// height (rows).
func New(width, height int) Matrix {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("matrix: negative dimensions %dx%d", width, height))
	}
	return Matrix{
		width:  width,
		height: height,
		values: make([]float64, width*height),
	}
}

// FromSlice returns a matrix that owns a copy of values, interpreted
// row-major.
func FromSlice(width, height int, values []float64) (Matrix, error) {
	if width < 0 || height < 0 || len(values) != width*height {
		return Matrix{}, fmt.Errorf("%w: %d values for %dx%d", ErrShapeMismatch, len(values), width, height)
	}
	m := New(width, height)
	copy(m.values, values)
	return m, nil
}

// Column returns a width-1 matrix holding values top to bottom.
func Column(values []float64) Matrix {
	m := New(1, len(values))
	copy(m.values, values)
	return m
}

// Fill returns a matrix with every cell set to v.
func Fill(width, height int, v float64) Matrix {
	m := New(width, height)
	for i := range m.values {
		m.values[i] = v
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.values[i*n+i] = 1
	}
	return m
}

// FromDense copies a gonum matrix. Gonum rows become rows and gonum
// columns become columns.
func FromDense(d mat.Matrix) Matrix {
	r, c := d.Dims()
	m := New(c, r)
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			m.values[y*c+x] = d.At(y, x)
		}
	}
	return m
}

// Width returns the number of columns.
func (m Matrix) Width() int { return m.width }

// Height returns the number of rows.
func (m Matrix) Height() int { return m.height }

// Len returns the number of cells.
func (m Matrix) Len() int { return len(m.values) }

// At returns the value in column x, row y.
func (m Matrix) At(x, y int) float64 {
	m.check(x, y)
	return m.values[y*m.width+x]
}

// Set writes v into column x, row y.
//
// Set mutates the receiver's buffer, which is shared by copies of the
// Matrix value. Use Clone first when the original must survive.
func (m Matrix) Set(x, y int, v float64) {
	m.check(x, y)
	m.values[y*m.width+x] = v
}

func (m Matrix) check(x, y int) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of range for %dx%d", x, y, m.width, m.height))
	}
}

// Values returns a copy of the row-major backing data.
func (m Matrix) Values() []float64 {
	out := make([]float64, len(m.values))
	copy(out, m.values)
	return out
}

// Row returns a copy of row y.
func (m Matrix) Row(y int) []float64 {
	m.check(0, y)
	out := make([]float64, m.width)
	copy(out, m.values[y*m.width:(y+1)*m.width])
	return out
}

// ColumnAt returns a copy of column x as a slice.
func (m Matrix) ColumnAt(x int) []float64 {
	m.check(x, 0)
	out := make([]float64, m.height)
	for y := range out {
		out[y] = m.values[y*m.width+x]
	}
	return out
}

// SetColumn overwrites column x with values.
func (m Matrix) SetColumn(x int, values []float64) error {
	if len(values) != m.height {
		return fmt.Errorf("%w: column of %d values for height %d", ErrShapeMismatch, len(values), m.height)
	}
	m.check(x, 0)
	for y, v := range values {
		m.values[y*m.width+x] = v
	}
	return nil
}

// ArgMaxColumn returns the row index of the largest value in column x.
// The first maximum wins on ties.
func (m Matrix) ArgMaxColumn(x int) int {
	return floats.MaxIdx(m.ColumnAt(x))
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	return Matrix{width: m.width, height: m.height, values: m.Values()}
}

// SameShape reports whether m and o share width and height.
func (m Matrix) SameShape(o Matrix) bool {
	return m.width == o.width && m.height == o.height
}

// Equal reports whether m and o have the same shape and identical values.
func (m Matrix) Equal(o Matrix) bool {
	return m.SameShape(o) && floats.Equal(m.values, o.values)
}

// EqualApprox reports whether m and o have the same shape and every pair of
// values is within tol (absolute or relative).
func (m Matrix) EqualApprox(o Matrix, tol float64) bool {
	return m.SameShape(o) && floats.EqualApprox(m.values, o.values, tol)
}

// Dense returns a gonum copy of m with Height rows and Width columns.
// It panics on an empty matrix, as mat.NewDense does.
func (m Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.height, m.width, m.Values())
}

// Transpose returns the height x width matrix with (x,y) -> (y,x).
func (m Matrix) Transpose() Matrix {
	out := New(m.height, m.width)
	parallel.For(m.height, m.width, parallel.Default, func(y int) {
		row := m.values[y*m.width : (y+1)*m.width]
		for x, v := range row {
			out.values[x*out.width+y] = v
		}
	})
	return out
}

// Hadamard returns the elementwise product of m and o.
func (m Matrix) Hadamard(o Matrix) (Matrix, error) {
	if !m.SameShape(o) {
		return Matrix{}, m.shapeErr("hadamard", o)
	}
	return m.zipRows(o, floats.MulTo), nil
}

// Add returns m + o.
func (m Matrix) Add(o Matrix) (Matrix, error) {
	if !m.SameShape(o) {
		return Matrix{}, m.shapeErr("add", o)
	}
	return m.zipRows(o, floats.AddTo), nil
}

// Sub returns m - o.
func (m Matrix) Sub(o Matrix) (Matrix, error) {
	if !m.SameShape(o) {
		return Matrix{}, m.shapeErr("sub", o)
	}
	return m.zipRows(o, floats.SubTo), nil
}

func (m Matrix) shapeErr(op string, o Matrix) error {
	return fmt.Errorf("%w: %s %dx%d with %dx%d", ErrShapeMismatch, op, m.width, m.height, o.width, o.height)
}

// zipRows applies a gonum slice kernel row by row into a fresh matrix.
func (m Matrix) zipRows(o Matrix, kernel func(dst, s, t []float64) []float64) Matrix {
	out := New(m.width, m.height)
	w := m.width
	parallel.For(m.height, w, parallel.Default, func(y int) {
		lo, hi := y*w, (y+1)*w
		kernel(out.values[lo:hi], m.values[lo:hi], o.values[lo:hi])
	})
	return out
}

// Scale returns m with every value multiplied by s.
func (m Matrix) Scale(s float64) Matrix {
	out := New(m.width, m.height)
	w := m.width
	parallel.For(m.height, w, parallel.Default, func(y int) {
		lo, hi := y*w, (y+1)*w
		floats.ScaleTo(out.values[lo:hi], s, m.values[lo:hi])
	})
	return out
}

// Div returns m with every value divided by s. Division by zero yields
// IEEE-754 infinities or NaN.
func (m Matrix) Div(s float64) Matrix {
	return m.Apply(func(v float64) float64 { return v / s })
}

// Apply returns a matrix with fn applied to every value. fn must be pure;
// rows may be evaluated concurrently.
func (m Matrix) Apply(fn func(float64) float64) Matrix {
	out := New(m.width, m.height)
	w := m.width
	parallel.For(m.height, w, parallel.Default, func(y int) {
		for i := y * w; i < (y+1)*w; i++ {
			out.values[i] = fn(m.values[i])
		}
	})
	return out
}

// Mul returns the matrix product m * o. It requires m.Width() == o.Height();
// the result is o.Width() columns by m.Height() rows.
func (m Matrix) Mul(o Matrix) (Matrix, error) {
	if m.width != o.height {
		return Matrix{}, fmt.Errorf("%w: %dx%d * %dx%d", ErrDimensionMismatch, m.width, m.height, o.width, o.height)
	}
	out := New(o.width, m.height)
	if out.Len() == 0 {
		return out, nil
	}

	// Rows of ot are the columns of o, so each cell is a contiguous dot product.
	ot := o.Transpose()
	inner := m.width
	parallel.For(m.height, o.width*inner, parallel.Default, func(y int) {
		row := m.values[y*inner : (y+1)*inner]
		dst := out.values[y*out.width : (y+1)*out.width]
		for x := range dst {
			dst[x] = floats.Dot(row, ot.values[x*inner:(x+1)*inner])
		}
	})
	return out, nil
}

// AddColumn returns m with col added to every column. col must be a
// width-1 matrix of height m.Height().
func (m Matrix) AddColumn(col Matrix) (Matrix, error) {
	if col.width != 1 || col.height != m.height {
		return Matrix{}, fmt.Errorf("%w: broadcast %dx%d onto %dx%d", ErrShapeMismatch, col.width, col.height, m.width, m.height)
	}
	out := New(m.width, m.height)
	w := m.width
	parallel.For(m.height, w, parallel.Default, func(y int) {
		dst := out.values[y*w : (y+1)*w]
		copy(dst, m.values[y*w:(y+1)*w])
		floats.AddConst(col.values[y], dst)
	})
	return out, nil
}

// RowMeans returns a width-1 matrix holding the average of each row.
// Rows of a zero-width matrix average to NaN.
func (m Matrix) RowMeans() Matrix {
	out := New(1, m.height)
	w := m.width
	for y := 0; y < m.height; y++ {
		out.values[y] = floats.Sum(m.values[y*w:(y+1)*w]) / float64(w)
	}
	return out
}

// String renders m one row per line.
func (m Matrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matrix(%dx%d)", m.width, m.height)
	for y := 0; y < m.height; y++ {
		b.WriteString("\n[")
		for x := 0; x < m.width; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.6g", m.values[y*m.width+x])
		}
		b.WriteByte(']')
	}
	return b.String()
}
