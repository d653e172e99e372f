package pods

import (
	"fmt"

	"github.com/openfluke/segscan/scan"
)

// ScanOptions selects operator, direction and mode of a segmented scan pod.
type ScanOptions struct {
	Op        string // "sum"|"min"|"max"|"or"; empty means sum
	Backward  bool
	Exclusive bool
}

func (o ScanOptions) op() string {
	if o.Op == "" {
		return "sum"
	}
	return o.Op
}

func (o ScanOptions) direction() scan.Direction {
	if o.Backward {
		return scan.Backward
	}
	return scan.Forward
}

func (o ScanOptions) mode() scan.Mode {
	if o.Exclusive {
		return scan.Exclusive
	}
	return scan.Inclusive
}

// CSR is a sparse matrix in compressed sparse row form: row r holds the entries
// RowPtr[r]..RowPtr[r+1] of ColIdx and Vals.
type CSR struct {
	Rows, Cols int
	RowPtr     []int
	ColIdx     []int
	Vals       []float32
}

func (m CSR) validate() error {
	if len(m.RowPtr) != m.Rows+1 {
		return fmt.Errorf("%w: %d row pointers for %d rows", ErrBadInput, len(m.RowPtr), m.Rows)
	}
	nnz := m.RowPtr[m.Rows]
	if len(m.ColIdx) != nnz || len(m.Vals) != nnz {
		return fmt.Errorf("%w: %d non-zeros, %d columns, %d values", ErrBadInput, nnz, len(m.ColIdx), len(m.Vals))
	}
	for _, c := range m.ColIdx {
		if c < 0 || c >= m.Cols {
			return fmt.Errorf("%w: column %d out of range", ErrBadInput, c)
		}
	}
	return nil
}
