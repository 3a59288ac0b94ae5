// Package linsolve defines the contract between the interior-point solver
// and the sparse factorization backend, and provides two implementations:
// SparseLU on top of github.com/edp1096/sparse and a dense fallback for
// small systems.
package linsolve

import "github.com/mbdsim/ipqp/pkg/spmat"

// Job selects which phase of the factorization pipeline a Call performs.
// The split mirrors the job codes of direct-solver libraries so a backend
// can cache the analysis when the sparsity pattern is locked.
type Job int

const (
	Analyze Job = iota + 1
	Factorize
	Solve
	AnalyzeFactorize
	FactorizeSolve
	Complete // analyze + factorize + solve
)

func (j Job) String() string {
	switch j {
	case Analyze:
		return "ANALYZE"
	case Factorize:
		return "FACTORIZE"
	case Solve:
		return "SOLVE"
	case AnalyzeFactorize:
		return "ANALYZE_FACTORIZE"
	case FactorizeSolve:
		return "FACTORIZE_SOLVE"
	case Complete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Status codes returned by Call. Zero is success; anything else is a
// backend diagnostic code that the caller propagates unmodified.
const (
	StatusOK          = 0
	StatusNoProblem   = -1
	StatusFactorError = -2
	StatusSolveError  = -3
)

// Adapter is an opaque linear solver for square systems assembled in CSR3
// form. SetProblem binds the matrix and right-hand side by reference; Call
// runs the requested phases and returns an integer status (0 = success).
// The solution vector stays valid until the next SetProblem.
type Adapter interface {
	SetProblem(m *spmat.Matrix, rhs []float64)
	Call(job Job) int
	Solution() []float64
	LastError() error
}
