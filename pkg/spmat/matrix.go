package spmat

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch indicates two matrices of different sizes were
	// combined or compared. The receiver is left untouched.
	ErrDimensionMismatch = errors.New("spmat: operand dimensions do not match")
	// ErrInvalidIndex indicates a corrupted CSR3 index structure.
	ErrInvalidIndex = errors.New("spmat: invalid index structure")
)

// Matrix is a CSR3 sparse matrix with lazy insertion.
//
// The three arrays (leadIndex, trailIndex, values) are the usual compressed
// row storage, except that each row window may contain uninitialized holes
// that later insertions can claim without moving other entries. Compress
// removes the holes and sorts each row, producing the canonical form a
// factorization backend expects.
//
// Building is much cheaper when the sparsity pattern is known in advance:
// learn it once with a PatternLearner, hand it over with
// LoadSparsityPattern, and set SetPatternLock(true) so that Reset keeps the
// topology arrays and only clears values.
type Matrix struct {
	numRows  int
	numCols  int
	rowMajor bool

	leadIndex   []int     // length leadDim+1, monotonic offsets into trailIndex
	trailIndex  []int     // trailing index per slot; -1 on slots never touched
	values      []float64 // parallel to trailIndex
	initialized []bool    // whether a slot holds a real entry or is a hole

	compressed    bool
	patternLocked bool
	lockBroken    bool
	maxShifts     int

	shiftCount   int // slots moved by insertions, for diagnostics
	reallocCount int // storage growth events, for diagnostics
}

// New creates a row-major matrix with room for at least nnzHint entries.
// Overestimating nnzHint avoids reallocation while building.
func New(rows, cols, nnzHint int) *Matrix {
	return newMatrix(rows, cols, nnzHint, true)
}

// NewColumnMajor creates a column-major matrix (leading dimension runs over
// columns). Insertion and compression behave identically.
func NewColumnMajor(rows, cols, nnzHint int) *Matrix {
	return newMatrix(rows, cols, nnzHint, false)
}

func newMatrix(rows, cols, nnzHint int, rowMajor bool) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic("spmat: matrix dimensions must be positive")
	}
	m := &Matrix{rowMajor: rowMajor, maxShifts: math.MaxInt}
	m.resetArrays(rows, cols, nnzHint)
	return m
}

func (m *Matrix) leadDim() int {
	if m.rowMajor {
		return m.numRows
	}
	return m.numCols
}

func (m *Matrix) trailDim() int {
	if m.rowMajor {
		return m.numCols
	}
	return m.numRows
}

func (m *Matrix) toLeadTrail(row, col int) (int, int) {
	if row < 0 || row >= m.numRows {
		panic("spmat: row index out of range")
	}
	if col < 0 || col >= m.numCols {
		panic("spmat: column index out of range")
	}
	if m.rowMajor {
		return row, col
	}
	return col, row
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.numRows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.numCols }

// IsRowMajor reports whether the leading dimension runs over rows.
func (m *Matrix) IsRowMajor() bool { return m.rowMajor }

// IsCompressed reports whether the storage is hole-free and sorted.
func (m *Matrix) IsCompressed() bool { return m.compressed }

// IsPatternLocked reports whether the topology is frozen across Reset calls.
func (m *Matrix) IsPatternLocked() bool { return m.patternLocked }

// SetPatternLock freezes (or releases) the sparsity pattern: while locked,
// Reset keeps leadIndex/trailIndex verbatim and clears only values and flags.
func (m *Matrix) SetPatternLock(lock bool) {
	m.patternLocked = lock
	if lock {
		m.lockBroken = false
	}
}

// SetMaxShifts bounds how far an insertion may search for a free slot before
// falling back to reallocation.
func (m *Matrix) SetMaxShifts(maxShifts int) {
	if maxShifts <= 0 {
		maxShifts = math.MaxInt
	}
	m.maxShifts = maxShifts
}

// MaxShifts returns the current insertion shift bound.
func (m *Matrix) MaxShifts() int { return m.maxShifts }

// ShiftCount returns the cumulative number of slots moved by insertions.
func (m *Matrix) ShiftCount() int { return m.shiftCount }

// ReallocCount returns the number of storage growth events.
func (m *Matrix) ReallocCount() int { return m.reallocCount }

// Capacity returns the allocated slot count of the trailing-index array.
func (m *Matrix) Capacity() int { return len(m.trailIndex) }

// UsedLength returns leadIndex[leadDim]: the slot window covered by rows,
// holes included.
func (m *Matrix) UsedLength() int { return m.leadIndex[m.leadDim()] }

// NNZ returns the number of initialized entries.
func (m *Matrix) NNZ() int {
	if m.compressed {
		return m.leadIndex[m.leadDim()]
	}
	nnz := 0
	for _, ok := range m.initialized {
		if ok {
			nnz++
		}
	}
	return nnz
}

// LeadArray returns the leading-index array (row offsets if row-major).
// Valid for backend consumption only after Compress.
func (m *Matrix) LeadArray() []int { return m.leadIndex }

// TrailArray returns the trailing-index array clipped to the used window.
func (m *Matrix) TrailArray() []int { return m.trailIndex[:m.UsedLength()] }

// ValueArray returns the value array clipped to the used window.
func (m *Matrix) ValueArray() []float64 { return m.values[:m.UsedLength()] }

// SetElement writes value at (row, col), creating the entry if needed.
// With overwrite false the value accumulates onto an existing entry.
func (m *Matrix) SetElement(row, col int, value float64, overwrite bool) {
	lead, trail := m.toLeadTrail(row, col)

	start, end := m.leadIndex[lead], m.leadIndex[lead+1]
	insPos := end
	for k := start; k < end; k++ {
		if m.initialized[k] {
			if m.trailIndex[k] == trail {
				if overwrite {
					m.values[k] = value
				} else {
					m.values[k] += value
				}
				return
			}
			if m.trailIndex[k] > trail && insPos == end {
				insPos = k
			}
			continue
		}
		// Hole carrying the right hint: the locked-pattern fast path.
		if m.trailIndex[k] == trail {
			m.claim(k, trail, value)
			return
		}
		if insPos == end {
			insPos = k
		}
	}

	if insPos < end && !m.initialized[insPos] {
		// A generic hole inside the row window; row order may suffer until
		// the next Compress.
		if m.patternLocked {
			m.lockBroken = true
		}
		m.claim(insPos, trail, value)
		return
	}

	slot := m.makeRoom(lead, insPos)
	if slot < 0 {
		slot = m.growAndInsert(lead, trail)
	}
	if m.patternLocked {
		m.lockBroken = true
	}
	m.claim(slot, trail, value)
}

func (m *Matrix) claim(slot, trail int, value float64) {
	m.trailIndex[slot] = trail
	m.values[slot] = value
	m.initialized[slot] = true
	m.compressed = false
}

// GetElement returns the stored value at (row, col), or zero if the entry
// does not exist. It never mutates the matrix.
func (m *Matrix) GetElement(row, col int) float64 {
	lead, trail := m.toLeadTrail(row, col)
	for k := m.leadIndex[lead]; k < m.leadIndex[lead+1]; k++ {
		if m.initialized[k] && m.trailIndex[k] == trail {
			return m.values[k]
		}
	}
	return 0
}

// Reset clears the matrix to the given dimensions. While the pattern lock is
// intact and dimensions are unchanged, the topology arrays are preserved
// verbatim and only values and initialized flags are cleared; otherwise the
// storage is rebuilt using nnzHint.
func (m *Matrix) Reset(rows, cols, nnzHint int) {
	if rows <= 0 || cols <= 0 {
		panic("spmat: matrix dimensions must be positive")
	}
	if m.patternLocked && !m.lockBroken && rows == m.numRows && cols == m.numCols {
		for i := range m.values {
			m.values[i] = 0
		}
		for i := range m.initialized {
			m.initialized[i] = false
		}
		m.compressed = false
		return
	}
	m.resetArrays(rows, cols, nnzHint)
}

func (m *Matrix) resetArrays(rows, cols, nnzHint int) {
	m.numRows, m.numCols = rows, cols
	leadDim := m.leadDim()
	capacity := nnzHint
	if capacity < leadDim {
		capacity = leadDim
	}
	m.leadIndex = make([]int, leadDim+1)
	distributeRange(m.leadIndex, capacity)
	m.trailIndex = make([]int, capacity)
	for i := range m.trailIndex {
		m.trailIndex[i] = -1
	}
	m.values = make([]float64, capacity)
	m.initialized = make([]bool, capacity)
	m.compressed = false
	m.lockBroken = false
}

// distributeRange spreads offsets 0..capacity evenly over the index vector,
// giving every row a roughly equal share of free slots.
func distributeRange(index []int, capacity int) {
	n := len(index) - 1
	for i := 0; i <= n; i++ {
		index[i] = i * capacity / n
	}
}

// LoadSparsityPattern sizes the storage exactly for a learned pattern: every
// slot carries its trailing-index hint so that inserting precisely the
// recorded (row, col) pairs never shifts nor reallocates.
func (m *Matrix) LoadSparsityPattern(learner *PatternLearner) {
	if learner.rowMajor != m.rowMajor {
		panic("spmat: pattern learner storage order does not match")
	}
	m.numRows, m.numCols = learner.numRows, learner.numCols
	pattern := learner.Pattern()
	leadDim := m.leadDim()

	nnz := 0
	for _, row := range pattern {
		nnz += len(row)
	}
	if nnz == 0 {
		nnz = 1
	}

	m.leadIndex = make([]int, leadDim+1)
	m.trailIndex = make([]int, nnz)
	m.values = make([]float64, nnz)
	m.initialized = make([]bool, nnz)

	pos := 0
	for i := 0; i < leadDim; i++ {
		m.leadIndex[i] = pos
		for _, trail := range pattern[i] {
			m.trailIndex[pos] = trail
			pos++
		}
	}
	m.leadIndex[leadDim] = pos
	for k := pos; k < len(m.trailIndex); k++ {
		m.trailIndex[k] = -1
	}
	m.compressed = false
	m.lockBroken = false
}

// Compress removes holes, sorts every row by trailing index and merges
// duplicates, leaving the canonical form expected by factorization backends.
// Idempotent.
func (m *Matrix) Compress() {
	m.compact(math.Inf(-1))
}

// Prune behaves as Compress but additionally discards every entry with
// |value| <= threshold.
func (m *Matrix) Prune(threshold float64) {
	m.compact(threshold)
}

func (m *Matrix) compact(threshold float64) {
	if m.compressed && math.IsInf(threshold, -1) {
		return
	}
	leadDim := m.leadDim()
	usedBefore := m.leadIndex[leadDim]

	pos := 0
	oldStart := m.leadIndex[0]
	for i := 0; i < leadDim; i++ {
		oldEnd := m.leadIndex[i+1]
		rowStart := pos
		for k := oldStart; k < oldEnd; k++ {
			if !m.initialized[k] {
				continue
			}
			if math.Abs(m.values[k]) <= threshold {
				continue
			}
			m.trailIndex[pos] = m.trailIndex[k]
			m.values[pos] = m.values[k]
			pos++
		}
		sortRow(m.trailIndex[rowStart:pos], m.values[rowStart:pos])
		pos = rowStart + dedupRow(m.trailIndex[rowStart:pos], m.values[rowStart:pos])
		oldStart = oldEnd
		m.leadIndex[i] = rowStart
	}
	m.leadIndex[leadDim] = pos

	for k := range m.initialized {
		m.initialized[k] = k < pos
	}
	for k := pos; k < len(m.trailIndex); k++ {
		m.trailIndex[k] = -1
	}
	if m.patternLocked && pos != usedBefore {
		m.lockBroken = true
	}
	m.compressed = true
}

// sortRow is an insertion sort over the paired trail/value slices; rows are
// short enough that this beats interface-based sorting.
func sortRow(trail []int, vals []float64) {
	for i := 1; i < len(trail); i++ {
		t, v := trail[i], vals[i]
		j := i - 1
		for j >= 0 && trail[j] > t {
			trail[j+1], vals[j+1] = trail[j], vals[j]
			j--
		}
		trail[j+1], vals[j+1] = t, v
	}
}

// dedupRow merges adjacent duplicates by accumulation and returns the new
// length. Duplicates cannot arise through SetElement; this guards bulk loads.
func dedupRow(trail []int, vals []float64) int {
	if len(trail) == 0 {
		return 0
	}
	w := 0
	for r := 1; r < len(trail); r++ {
		if trail[r] == trail[w] {
			vals[w] += vals[r]
			continue
		}
		w++
		trail[w], vals[w] = trail[r], vals[r]
	}
	return w + 1
}

// Trim shrinks the backing arrays to exactly the used window.
func (m *Matrix) Trim() {
	used := m.UsedLength()
	trail := make([]int, used)
	vals := make([]float64, used)
	flags := make([]bool, used)
	copy(trail, m.trailIndex)
	copy(vals, m.values)
	copy(flags, m.initialized)
	m.trailIndex, m.values, m.initialized = trail, vals, flags
}

// Equals reports componentwise equality. Matrices of different dimensions
// are never equal. Either operand may be uncompressed.
func (m *Matrix) Equals(o *Matrix) bool {
	if m.numRows != o.numRows || m.numCols != o.numCols {
		return false
	}
	equalSide := func(a, b *Matrix) bool {
		ok := true
		a.ForEachNonZero(func(row, col int, v float64) {
			if b.GetElement(row, col) != v {
				ok = false
			}
		})
		return ok
	}
	return equalSide(m, o) && equalSide(o, m)
}

// Add accumulates o onto m componentwise.
func (m *Matrix) Add(o *Matrix) error { return m.apply(o, 1) }

// Sub subtracts o from m componentwise.
func (m *Matrix) Sub(o *Matrix) error { return m.apply(o, -1) }

func (m *Matrix) apply(o *Matrix, sign float64) error {
	if m.numRows != o.numRows || m.numCols != o.numCols {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			m.numRows, m.numCols, o.numRows, o.numCols)
	}
	o.ForEachNonZero(func(row, col int, v float64) {
		m.SetElement(row, col, sign*v, false)
	})
	return nil
}

// Scale multiplies every stored entry by coeff.
func (m *Matrix) Scale(coeff float64) {
	for k, ok := range m.initialized {
		if ok {
			m.values[k] *= coeff
		}
	}
}

// ForEachNonZero visits every initialized entry as (row, col, value).
// Visiting order follows storage order, not necessarily sorted.
func (m *Matrix) ForEachNonZero(fn func(row, col int, value float64)) {
	leadDim := m.leadDim()
	for i := 0; i < leadDim; i++ {
		for k := m.leadIndex[i]; k < m.leadIndex[i+1]; k++ {
			if !m.initialized[k] {
				continue
			}
			if m.rowMajor {
				fn(i, m.trailIndex[k], m.values[k])
			} else {
				fn(m.trailIndex[k], i, m.values[k])
			}
		}
	}
}

// MulVec computes dst = M * x over the whole matrix.
func (m *Matrix) MulVec(dst, x []float64) {
	m.MulVecClipped(dst, x, 0, m.numRows-1, 0, m.numCols-1, 0, 0)
}

// MulVecClipped multiplies the submatrix M[rowStart:rowEnd, colStart:colEnd]
// (bounds inclusive) by x, reading x from xOff and writing dst from dstOff.
// dst rows in range are overwritten, not accumulated. Row-major only.
func (m *Matrix) MulVecClipped(dst, x []float64, rowStart, rowEnd, colStart, colEnd, xOff, dstOff int) {
	if !m.rowMajor {
		panic("spmat: clipped multiply requires row-major storage")
	}
	if rowEnd >= m.numRows || colEnd >= m.numCols || rowStart < 0 || colStart < 0 {
		panic("spmat: clipped multiply range out of bounds")
	}
	if len(x) < xOff+(colEnd-colStart+1) || len(dst) < dstOff+(rowEnd-rowStart+1) {
		panic("spmat: clipped multiply vector too short")
	}
	for r := rowStart; r <= rowEnd; r++ {
		sum := 0.0
		for k := m.leadIndex[r]; k < m.leadIndex[r+1]; k++ {
			if !m.initialized[k] {
				continue
			}
			c := m.trailIndex[k]
			if c < colStart || c > colEnd {
				continue
			}
			sum += m.values[k] * x[xOff+c-colStart]
		}
		dst[dstOff+r-rowStart] = sum
	}
}

// VerifyMatrix checks the CSR3 invariants and returns the first violation.
// After Compress every row must be strictly increasing with all slots
// initialized; before, holes are allowed inside each row window.
func (m *Matrix) VerifyMatrix() error {
	leadDim := m.leadDim()
	if len(m.leadIndex) != leadDim+1 {
		return fmt.Errorf("%w: leadIndex length %d, want %d", ErrInvalidIndex, len(m.leadIndex), leadDim+1)
	}
	if m.leadIndex[0] != 0 {
		return fmt.Errorf("%w: leadIndex[0] = %d", ErrInvalidIndex, m.leadIndex[0])
	}
	for i := 0; i < leadDim; i++ {
		if m.leadIndex[i+1] < m.leadIndex[i] {
			return fmt.Errorf("%w: leadIndex not monotonic at %d", ErrInvalidIndex, i)
		}
	}
	if used := m.leadIndex[leadDim]; used > len(m.trailIndex) {
		return fmt.Errorf("%w: used window %d exceeds capacity %d", ErrInvalidIndex, used, len(m.trailIndex))
	}
	for i := 0; i < leadDim; i++ {
		prev := -1
		for k := m.leadIndex[i]; k < m.leadIndex[i+1]; k++ {
			if !m.initialized[k] {
				if m.compressed {
					return fmt.Errorf("%w: hole at slot %d in compressed matrix", ErrInvalidIndex, k)
				}
				continue
			}
			t := m.trailIndex[k]
			if t < 0 || t >= m.trailDim() {
				return fmt.Errorf("%w: trailing index %d out of range at slot %d", ErrInvalidIndex, t, k)
			}
			if m.compressed {
				if t <= prev {
					return fmt.Errorf("%w: row %d not strictly increasing at slot %d", ErrInvalidIndex, i, k)
				}
				prev = t
			}
		}
	}
	return nil
}
