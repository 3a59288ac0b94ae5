package ipm

import (
	"errors"
	"fmt"

	"github.com/mbdsim/ipqp/internal/consts"
	"github.com/mbdsim/ipqp/pkg/linsolve"
	"github.com/mbdsim/ipqp/pkg/spmat"
)

// Formulation selects how the Newton system is assembled.
type Formulation int

const (
	// Augmented eliminates the slack rows and solves the (n+m) system
	//
	//	[ G            -Aᵀ ] [Δx]   [ -rd            ]
	//	[ A   diag(y/λ)+E  ] [Δλ] = [ -rp - y + σμ/λ ]
	//
	// recovering Δy = A·Δx + rp + E·Δλ afterwards.
	Augmented Formulation = iota
	// Standard keeps all three blocks and solves the full (n+2m) system.
	Standard
	// Normal would condense onto the primal variables. Not implemented.
	Normal
)

func (f Formulation) String() string {
	switch f {
	case Augmented:
		return "AUGMENTED"
	case Standard:
		return "STANDARD"
	case Normal:
		return "NORMAL"
	default:
		return "UNKNOWN"
	}
}

// ErrUnsupportedFormulation is returned when a solve is requested with the
// NORMAL formulation selected.
var ErrUnsupportedFormulation = errors.New("ipm: NORMAL formulation is not supported")

// SolveError reports a linear-solver failure during a Newton step.
type SolveError struct {
	Job    linsolve.Job
	Status int
	Err    error
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ipm: linear solve failed (job %s, status %d): %v", e.Job, e.Status, e.Err)
	}
	return fmt.Sprintf("ipm: linear solve failed (job %s, status %d)", e.Job, e.Status)
}

func (e *SolveError) Unwrap() error { return e.Err }

// kktDim returns the dimension of the Newton system for the configured
// formulation.
func (s *Solver) kktDim() int {
	if s.cfg.Formulation == Standard {
		return s.n + 2*s.m
	}
	return s.n + s.m
}

// assembleKKT sizes the Newton matrix and writes every entry that stays
// constant across iterations. Iterate-dependent diagonals are pre-touched
// with placeholder values so the pattern is complete before any lock.
func (s *Solver) assembleKKT(desc ProblemDescriptor) {
	dim := s.kktDim()
	nnzHint := int(consts.KKTFullness*float64(s.n)*float64(s.n)) + dim

	if s.kkt == nil {
		s.kkt = spmat.New(dim, dim, nnzHint)
		if s.cfg.MaxShifts > 0 {
			s.kkt.SetMaxShifts(s.cfg.MaxShifts)
		}
	}

	if s.cfg.LockSparsityPattern {
		if s.kkt.IsPatternLocked() && s.kkt.Rows() == dim {
			s.kkt.Reset(dim, dim, nnzHint)
		} else {
			learner := spmat.NewPatternLearner(dim, dim)
			s.loadBlocks(learner, desc)
			s.kkt.LoadSparsityPattern(learner)
			s.kkt.SetPatternLock(true)
		}
	} else {
		s.kkt.Reset(dim, dim, nnzHint)
	}
	s.loadBlocks(s.kkt, desc)

	if s.hasCompliance {
		if s.compliance == nil || s.compliance.Rows() != s.m {
			s.compliance = spmat.New(s.m, s.m, s.m)
		} else {
			s.compliance.Reset(s.m, s.m, s.m)
		}
		desc.LoadCompliance(s.compliance, 0, 0, 1, s.cfg.SkipTangential)
		s.compliance.Compress()
	}
}

// loadBlocks writes the constant blocks of the Newton matrix plus zero
// placeholders for the iterate-dependent diagonals.
func (s *Solver) loadBlocks(dst MatrixSetter, desc ProblemDescriptor) {
	n, m := s.n, s.m
	desc.LoadHessian(dst, 0, 0)
	desc.LoadConstraints(dst, n, 0, false, 1, s.cfg.SkipTangential)
	switch s.cfg.Formulation {
	case Augmented:
		desc.LoadConstraints(dst, 0, n, true, -1, s.cfg.SkipTangential)
		for i := 0; i < m; i++ {
			dst.SetElement(n+i, n+i, 0, true)
		}
		if s.hasCompliance {
			desc.LoadCompliance(dst, n, n, 1, s.cfg.SkipTangential)
		}
	case Standard:
		desc.LoadConstraints(dst, 0, n+m, true, -1, s.cfg.SkipTangential)
		for i := 0; i < m; i++ {
			dst.SetElement(n+i, n+i, -1, true)    // -I slack block
			dst.SetElement(n+m+i, n+i, 0, true)   // Λ
			dst.SetElement(n+m+i, n+m+i, 0, true) // Y
		}
	}
}

// kktSolve refreshes the iterate-dependent entries, fills the right-hand
// side and runs one Newton solve. sigma == 0 requests the affine predictor
// step; a corrector call must follow a predictor call on the same iterate.
// The step lands in dx, dy, dlam.
func (s *Solver) kktSolve(sigma float64) error {
	n, m := s.n, s.m
	switch s.cfg.Formulation {
	case Augmented:
		for i := 0; i < m; i++ {
			d := s.y[i] / s.lam[i]
			if s.hasCompliance {
				d += s.compliance.GetElement(i, i)
			}
			s.kkt.SetElement(n+i, n+i, d, true)
		}
		for i := 0; i < n; i++ {
			s.rhs[i] = -s.rd[i]
		}
		for i := 0; i < m; i++ {
			v := -s.rp[i] - s.y[i]
			if sigma != 0 {
				v += sigma * s.mu / s.lam[i]
			}
			s.rhs[n+i] = v
		}
	case Standard:
		for i := 0; i < m; i++ {
			s.kkt.SetElement(n+m+i, n+i, s.lam[i], true)
			s.kkt.SetElement(n+m+i, n+m+i, s.y[i], true)
		}
		if sigma == 0 {
			for i := 0; i < m; i++ {
				s.rpd[i] = s.y[i] * s.lam[i]
			}
		} else {
			// Mehrotra correction on top of the predictor's
			// complementarity residual.
			for i := 0; i < m; i++ {
				s.rpd[i] += s.dlam[i]*s.dy[i] - sigma*s.mu
			}
		}
		for i := 0; i < n; i++ {
			s.rhs[i] = -s.rd[i]
		}
		for i := 0; i < m; i++ {
			s.rhs[n+i] = -s.rp[i]
			s.rhs[n+m+i] = -s.rpd[i]
		}
	default:
		return ErrUnsupportedFormulation
	}
	s.kkt.Compress()

	s.adapter.SetProblem(s.kkt, s.rhs)
	if st := s.adapter.Call(linsolve.Complete); st != linsolve.StatusOK {
		return &SolveError{Job: linsolve.Complete, Status: st, Err: s.adapter.LastError()}
	}
	sol := s.adapter.Solution()

	copy(s.dx, sol[:n])
	switch s.cfg.Formulation {
	case Augmented:
		copy(s.dlam, sol[n:n+m])
		// Δy = A·Δx + rp + E·Δλ
		s.multiplyA(s.dx, s.dy)
		for i := 0; i < m; i++ {
			s.dy[i] += s.rp[i]
		}
		if s.hasCompliance {
			s.compliance.MulVec(s.vectm, s.dlam)
			for i := 0; i < m; i++ {
				s.dy[i] += s.vectm[i]
			}
		}
	case Standard:
		copy(s.dy, sol[n:n+m])
		copy(s.dlam, sol[n+m:n+2*m])
	}
	return nil
}

// multiplyG computes dst = G·x using the Hessian block of the Newton matrix.
func (s *Solver) multiplyG(x, dst []float64) {
	s.kkt.MulVecClipped(dst, x, 0, s.n-1, 0, s.n-1, 0, 0)
}

// multiplyA computes dst = A·x using the constraint block.
func (s *Solver) multiplyA(x, dst []float64) {
	s.kkt.MulVecClipped(dst, x, s.n, s.n+s.m-1, 0, s.n-1, 0, 0)
}

// multiplyNegAT computes dst = -Aᵀ·lam using the transposed block.
func (s *Solver) multiplyNegAT(lam, dst []float64) {
	off := s.n
	if s.cfg.Formulation == Standard {
		off = s.n + s.m
	}
	s.kkt.MulVecClipped(dst, lam, 0, s.n-1, off, off+s.m-1, 0, 0)
}
