package spmat

import "sort"

// PatternLearner is a value-less shadow of Matrix used for a dry-run
// assembly pass: SetElement only records which (row, col) pairs get touched.
// Feeding the result to Matrix.LoadSparsityPattern removes insertion-time
// shifting from the hot path of repeated builds.
type PatternLearner struct {
	numRows  int
	numCols  int
	rowMajor bool
	rows     [][]int
	clean    bool // rows are sorted and unique
}

// NewPatternLearner creates a row-major learner.
func NewPatternLearner(rows, cols int) *PatternLearner {
	l := &PatternLearner{rowMajor: true}
	l.Reset(rows, cols, 0)
	return l
}

// NewColumnMajorPatternLearner creates a column-major learner.
func NewColumnMajorPatternLearner(rows, cols int) *PatternLearner {
	l := &PatternLearner{rowMajor: false}
	l.Reset(rows, cols, 0)
	return l
}

// Rows returns the number of rows.
func (l *PatternLearner) Rows() int { return l.numRows }

// Cols returns the number of columns.
func (l *PatternLearner) Cols() int { return l.numCols }

// IsRowMajor reports the storage order the learner records in.
func (l *PatternLearner) IsRowMajor() bool { return l.rowMajor }

// SetElement records that (row, col) is touched. The value and overwrite
// flag are ignored.
func (l *PatternLearner) SetElement(row, col int, _ float64, _ bool) {
	if row < 0 || row >= l.numRows {
		panic("spmat: row index out of range")
	}
	if col < 0 || col >= l.numCols {
		panic("spmat: column index out of range")
	}
	lead, trail := row, col
	if !l.rowMajor {
		lead, trail = col, row
	}
	l.rows[lead] = append(l.rows[lead], trail)
	l.clean = false
}

// GetElement always returns zero; the learner stores no values.
func (l *PatternLearner) GetElement(_, _ int) float64 { return 0 }

// Reset discards the recorded pattern and adopts the new dimensions.
func (l *PatternLearner) Reset(rows, cols, _ int) {
	if rows <= 0 || cols <= 0 {
		panic("spmat: matrix dimensions must be positive")
	}
	l.numRows, l.numCols = rows, cols
	leadDim := rows
	if !l.rowMajor {
		leadDim = cols
	}
	l.rows = make([][]int, leadDim)
	l.clean = true
}

// Pattern collapses the records to sorted-unique per-row index lists and
// returns them. The returned slices are owned by the learner.
func (l *PatternLearner) Pattern() [][]int {
	if !l.clean {
		for i, row := range l.rows {
			sort.Ints(row)
			w := 0
			for r := 1; r < len(row); r++ {
				if row[r] != row[w] {
					w++
					row[w] = row[r]
				}
			}
			if len(row) > 0 {
				l.rows[i] = row[:w+1]
			}
		}
		l.clean = true
	}
	return l.rows
}

// NNZ returns the number of distinct recorded positions.
func (l *PatternLearner) NNZ() int {
	nnz := 0
	for _, row := range l.Pattern() {
		nnz += len(row)
	}
	return nnz
}
