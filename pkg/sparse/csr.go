// Package sparse defines the compressed sparse row (CSR) matrix consumed by
// the sparse entry points of the primitives.
package sparse

import (
	"errors"
	"fmt"
)

var ErrInvalidCSR = errors.New("invalid CSR matrix")

// Matrix is the read-only CSR view the primitives consume. Row i holds
// entries [RowOffsets()[i], RowOffsets()[i+1]) of Values and ColIndices.
type Matrix[T any] interface {
	Rows() int
	Cols() int
	NNZ() int
	RowOffsets() []int
	ColIndices() []int
	Values() []T
}

// CSR is a concrete compressed sparse row matrix.
type CSR[T any] struct {
	rows, cols int
	offsets    []int
	indices    []int
	values     []T
}

// NewCSR wraps the given arrays after validating their shape. The slices are
// not copied.
func NewCSR[T any](rows, cols int, offsets, indices []int, values []T) (*CSR[T], error) {
	if err := Validate(rows, cols, offsets, indices, len(values)); err != nil {
		return nil, err
	}
	return &CSR[T]{rows: rows, cols: cols, offsets: offsets, indices: indices, values: values}, nil
}

// Validate checks CSR structure: offsets has rows+1 non-decreasing entries
// starting at 0 and ending at nnz, and every column index is in [0, cols).
func Validate(rows, cols int, offsets, indices []int, nnz int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: negative shape %dx%d", ErrInvalidCSR, rows, cols)
	}
	if len(offsets) != rows+1 {
		return fmt.Errorf("%w: %d row offsets for %d rows", ErrInvalidCSR, len(offsets), rows)
	}
	if offsets[0] != 0 || offsets[rows] != nnz {
		return fmt.Errorf("%w: offsets span [%d, %d], want [0, %d]", ErrInvalidCSR, offsets[0], offsets[rows], nnz)
	}
	if len(indices) != nnz {
		return fmt.Errorf("%w: %d column indices for %d nonzeros", ErrInvalidCSR, len(indices), nnz)
	}
	for i := range rows {
		if offsets[i+1] < offsets[i] {
			return fmt.Errorf("%w: offsets decrease at row %d", ErrInvalidCSR, i)
		}
	}
	for i, c := range indices {
		if c < 0 || c >= cols {
			return fmt.Errorf("%w: column index %d at %d out of range [0, %d)", ErrInvalidCSR, c, i, cols)
		}
	}
	return nil
}

func (m *CSR[T]) Rows() int         { return m.rows }
func (m *CSR[T]) Cols() int         { return m.cols }
func (m *CSR[T]) NNZ() int          { return len(m.values) }
func (m *CSR[T]) RowOffsets() []int { return m.offsets }
func (m *CSR[T]) ColIndices() []int { return m.indices }
func (m *CSR[T]) Values() []T       { return m.values }

// Row returns the column indices and values of row i.
func (m *CSR[T]) Row(i int) ([]int, []T) {
	lo, hi := m.offsets[i], m.offsets[i+1]
	return m.indices[lo:hi], m.values[lo:hi]
}

// FromDense builds a CSR from a row-major dense matrix, keeping entries for
// which keep returns true. A nil keep keeps every non-zero entry.
func FromDense[T comparable](rows, cols int, data []T, keep func(T) bool) (*CSR[T], error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d dense matrix", ErrInvalidCSR, len(data), rows, cols)
	}
	if keep == nil {
		var zero T
		keep = func(v T) bool { return v != zero }
	}
	offsets := make([]int, rows+1)
	var indices []int
	var values []T
	for i := range rows {
		for j, v := range data[i*cols : (i+1)*cols] {
			if keep(v) {
				indices = append(indices, j)
				values = append(values, v)
			}
		}
		offsets[i+1] = len(values)
	}
	if indices == nil {
		indices = []int{}
		values = []T{}
	}
	return &CSR[T]{rows: rows, cols: cols, offsets: offsets, indices: indices, values: values}, nil
}

// Builder accumulates rows in order.
type Builder[T any] struct {
	cols    int
	offsets []int
	indices []int
	values  []T
}

// NewBuilder starts an empty CSR with the given column count.
func NewBuilder[T any](cols int) *Builder[T] {
	return &Builder[T]{cols: cols, offsets: []int{0}}
}

// AddRow appends a row. cols and vals must have equal length.
func (b *Builder[T]) AddRow(cols []int, vals []T) *Builder[T] {
	if len(cols) != len(vals) {
		panic(fmt.Sprintf("sparse: AddRow with %d columns and %d values", len(cols), len(vals)))
	}
	b.indices = append(b.indices, cols...)
	b.values = append(b.values, vals...)
	b.offsets = append(b.offsets, len(b.values))
	return b
}

// Build validates and returns the matrix.
func (b *Builder[T]) Build() (*CSR[T], error) {
	indices, values := b.indices, b.values
	if indices == nil {
		indices, values = []int{}, []T{}
	}
	return NewCSR(len(b.offsets)-1, b.cols, b.offsets, indices, values)
}
