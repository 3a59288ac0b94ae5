package linsolve

import (
	"fmt"

	"github.com/edp1096/sparse"

	"github.com/mbdsim/ipqp/pkg/spmat"
)

// SparseLU solves through the sparse-LU engine of github.com/edp1096/sparse
// (Markowitz-pivoting real LU). The engine uses 1-based indexing and its own
// linked storage, so every factorization reloads the values from the bound
// CSR3 matrix.
type SparseLU struct {
	size    int
	mat     *sparse.Matrix
	src     *spmat.Matrix
	rhs     []float64 // 1-based, size+1
	sol     []float64 // 0-based copy of the last solution
	lastErr error
}

// NewSparseLU creates an adapter with no problem bound.
func NewSparseLU() *SparseLU {
	return &SparseLU{}
}

// SetProblem binds the system matrix and right-hand side. The matrix must be
// square; the engine is recreated only when the size changes.
func (s *SparseLU) SetProblem(m *spmat.Matrix, rhs []float64) {
	if m.Rows() != m.Cols() {
		panic("linsolve: system matrix must be square")
	}
	if len(rhs) != m.Rows() {
		panic("linsolve: right-hand side length does not match matrix")
	}
	if s.mat == nil || s.size != m.Rows() {
		if s.mat != nil {
			s.mat.Destroy()
		}
		s.size = m.Rows()
		config := &sparse.Configuration{
			Real:           true,
			Expandable:     true,
			Translate:      true, // reloads address the matrix after Factor() reorders it
			ModifiedNodal:  true,
			TiesMultiplier: 5,
			PrinterWidth:   140,
		}
		mat, err := sparse.Create(int64(s.size), config)
		if err != nil {
			s.lastErr = fmt.Errorf("creating sparse engine: %v", err)
			s.mat = nil
			return
		}
		s.mat = mat
	}
	s.src = m
	if len(s.rhs) != s.size+1 {
		s.rhs = make([]float64, s.size+1)
	}
	copy(s.rhs[1:], rhs)
	for i := len(rhs) + 1; i < len(s.rhs); i++ {
		s.rhs[i] = 0
	}
}

func (s *SparseLU) load() {
	s.mat.Clear()
	s.src.ForEachNonZero(func(row, col int, v float64) {
		s.mat.GetElement(int64(row+1), int64(col+1)).Real += v
	})
}

func (s *SparseLU) factor() int {
	s.load()
	if err := s.mat.Factor(); err != nil {
		s.lastErr = fmt.Errorf("matrix factorization failed: %v", err)
		return StatusFactorError
	}
	return StatusOK
}

func (s *SparseLU) solve() int {
	x, err := s.mat.Solve(s.rhs)
	if err != nil {
		s.lastErr = fmt.Errorf("matrix solve failed: %v", err)
		return StatusSolveError
	}
	if len(s.sol) != s.size {
		s.sol = make([]float64, s.size)
	}
	copy(s.sol, x[1:s.size+1])
	return StatusOK
}

// Call runs the requested phases. The engine folds ordering into the
// factorization, so Analyze alone just reloads the values.
func (s *SparseLU) Call(job Job) int {
	if s.mat == nil || s.src == nil {
		return StatusNoProblem
	}
	s.lastErr = nil
	switch job {
	case Analyze:
		s.load()
		return StatusOK
	case Factorize, AnalyzeFactorize:
		return s.factor()
	case Solve:
		return s.solve()
	case FactorizeSolve, Complete:
		if st := s.factor(); st != StatusOK {
			return st
		}
		return s.solve()
	default:
		s.lastErr = fmt.Errorf("unknown job %d", job)
		return StatusNoProblem
	}
}

// Solution returns the last computed solution (0-based).
func (s *SparseLU) Solution() []float64 { return s.sol }

// LastError returns the error behind the most recent nonzero status.
func (s *SparseLU) LastError() error { return s.lastErr }

// Destroy releases the underlying engine.
func (s *SparseLU) Destroy() {
	if s.mat != nil {
		s.mat.Destroy()
		s.mat = nil
	}
}
