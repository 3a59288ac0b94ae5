package linsolve

import (
	"fmt"
	"math"

	"github.com/mbdsim/ipqp/pkg/spmat"
)

// DenseLU is a partial-pivoting LU solver over a dense copy of the system.
// It trades memory for robustness on small indefinite systems and serves as
// the reference backend in tests.
type DenseLU struct {
	size     int
	lu       []float64 // row-major n×n, L below the diagonal, U on and above
	perm     []int
	rhs      []float64
	sol      []float64
	src      *spmat.Matrix
	factored bool
	lastErr  error
}

// NewDenseLU creates an adapter with no problem bound.
func NewDenseLU() *DenseLU {
	return &DenseLU{}
}

// SetProblem binds the system matrix and right-hand side.
func (d *DenseLU) SetProblem(m *spmat.Matrix, rhs []float64) {
	if m.Rows() != m.Cols() {
		panic("linsolve: system matrix must be square")
	}
	if len(rhs) != m.Rows() {
		panic("linsolve: right-hand side length does not match matrix")
	}
	d.size = m.Rows()
	d.src = m
	if len(d.rhs) != d.size {
		d.rhs = make([]float64, d.size)
	}
	copy(d.rhs, rhs)
	d.factored = false
}

func (d *DenseLU) factor() int {
	n := d.size
	if len(d.lu) != n*n {
		d.lu = make([]float64, n*n)
		d.perm = make([]int, n)
	} else {
		for i := range d.lu {
			d.lu[i] = 0
		}
	}
	d.src.ForEachNonZero(func(row, col int, v float64) {
		d.lu[row*n+col] += v
	})
	for i := range d.perm {
		d.perm[i] = i
	}

	for k := 0; k < n; k++ {
		piv, pivAbs := k, math.Abs(d.lu[k*n+k])
		for r := k + 1; r < n; r++ {
			if a := math.Abs(d.lu[r*n+k]); a > pivAbs {
				piv, pivAbs = r, a
			}
		}
		if pivAbs == 0 {
			d.lastErr = fmt.Errorf("singular system: zero pivot at column %d", k)
			d.factored = false
			return StatusFactorError
		}
		if piv != k {
			for c := 0; c < n; c++ {
				d.lu[k*n+c], d.lu[piv*n+c] = d.lu[piv*n+c], d.lu[k*n+c]
			}
			d.perm[k], d.perm[piv] = d.perm[piv], d.perm[k]
		}
		for r := k + 1; r < n; r++ {
			f := d.lu[r*n+k] / d.lu[k*n+k]
			d.lu[r*n+k] = f
			for c := k + 1; c < n; c++ {
				d.lu[r*n+c] -= f * d.lu[k*n+c]
			}
		}
	}
	d.factored = true
	return StatusOK
}

func (d *DenseLU) solve() int {
	if !d.factored {
		d.lastErr = fmt.Errorf("solve requested before factorization")
		return StatusSolveError
	}
	n := d.size
	if len(d.sol) != n {
		d.sol = make([]float64, n)
	}
	// Forward substitution on the permuted right-hand side.
	for i := 0; i < n; i++ {
		sum := d.rhs[d.perm[i]]
		for j := 0; j < i; j++ {
			sum -= d.lu[i*n+j] * d.sol[j]
		}
		d.sol[i] = sum
	}
	// Back substitution.
	for i := n - 1; i >= 0; i-- {
		sum := d.sol[i]
		for j := i + 1; j < n; j++ {
			sum -= d.lu[i*n+j] * d.sol[j]
		}
		d.sol[i] = sum / d.lu[i*n+i]
	}
	return StatusOK
}

// Call runs the requested phases. Analysis is a no-op for a dense solver.
func (d *DenseLU) Call(job Job) int {
	if d.src == nil {
		return StatusNoProblem
	}
	d.lastErr = nil
	switch job {
	case Analyze:
		return StatusOK
	case Factorize, AnalyzeFactorize:
		return d.factor()
	case Solve:
		return d.solve()
	case FactorizeSolve, Complete:
		if st := d.factor(); st != StatusOK {
			return st
		}
		return d.solve()
	default:
		d.lastErr = fmt.Errorf("unknown job %d", job)
		return StatusNoProblem
	}
}

// Solution returns the last computed solution.
func (d *DenseLU) Solution() []float64 { return d.sol }

// LastError returns the error behind the most recent nonzero status.
func (d *DenseLU) LastError() error { return d.lastErr }
