package embeddings

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when embedding input is neither a Matrix
	// nor a plain nested float slice.
	ErrTypeMismatch = errors.New("embeddings: unsupported embedding container type")

	// ErrDimensionMismatch is returned when rows of different widths meet.
	ErrDimensionMismatch = errors.New("embeddings: embedding dimension mismatch")
)

// Matrix is a row-major collection of fixed-dimension embeddings. It is the
// canonical in-memory container: every accepted input shape is normalized
// into one of these at the boundary.
type Matrix struct {
	data []float32
	rows int
	dim  int
}

// NewMatrix allocates a zeroed rows×dim matrix.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{data: make([]float32, rows*dim), rows: rows, dim: dim}
}

// FromVectors builds a matrix from a non-empty list of equal-length vectors.
func FromVectors(vs []Vector) (*Matrix, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("embeddings: cannot build matrix from zero vectors")
	}
	dim := len(vs[0])
	if dim == 0 {
		return nil, fmt.Errorf("embeddings: cannot build matrix from empty vectors")
	}
	m := NewMatrix(len(vs), dim)
	for i, v := range vs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		copy(m.data[i*dim:(i+1)*dim], v)
	}
	return m, nil
}

// AsMatrix normalizes any accepted embedding container into a Matrix.
// Accepted: *Matrix, []Vector, [][]float32, [][]float64. A nil input stays
// nil (an absent pool). Anything else fails with ErrTypeMismatch.
func AsMatrix(v any) (*Matrix, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Matrix:
		return t, nil
	case []Vector:
		return FromVectors(t)
	case [][]float32:
		vs := make([]Vector, len(t))
		for i, row := range t {
			vs[i] = Vector(row)
		}
		return FromVectors(vs)
	case [][]float64:
		vs := make([]Vector, len(t))
		for i, row := range t {
			conv := make(Vector, len(row))
			for j, x := range row {
				conv[j] = float32(x)
			}
			vs[i] = conv
		}
		return FromVectors(vs)
	default:
		return nil, fmt.Errorf("%w: %T", ErrTypeMismatch, v)
	}
}

// Rows returns the number of embeddings held.
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return m.rows
}

// Dim returns the embedding dimension.
func (m *Matrix) Dim() int {
	if m == nil {
		return 0
	}
	return m.dim
}

// Row returns row i as a Vector sharing the underlying storage.
func (m *Matrix) Row(i int) Vector {
	return Vector(m.data[i*m.dim : (i+1)*m.dim])
}

// Data exposes the row-major backing slice, for serialization.
func (m *Matrix) Data() []float32 {
	if m == nil {
		return nil
	}
	return m.data
}

// Select returns a new matrix holding the given rows, in the given order.
func (m *Matrix) Select(idx []int) *Matrix {
	out := NewMatrix(len(idx), m.dim)
	for i, src := range idx {
		copy(out.data[i*m.dim:(i+1)*m.dim], m.Row(src))
	}
	return out
}
