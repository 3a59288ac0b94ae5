// Package ipm implements a primal-dual interior-point solver for convex
// quadratic programs with inequality constraints, in the Mehrotra
// predictor-corrector flavor. Problems arrive through a ProblemDescriptor;
// the Newton systems go through a linsolve.Adapter so the factorization
// backend is pluggable.
package ipm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/mbdsim/ipqp/internal/consts"
	"github.com/mbdsim/ipqp/pkg/linsolve"
	"github.com/mbdsim/ipqp/pkg/spmat"
	"github.com/mbdsim/ipqp/pkg/util"
)

// Status tracks where the solver is in its lifecycle.
type Status int

const (
	Uninitialized Status = iota
	Initialized
	Iterating
	Converged
	MaxIterReached
	Degenerate // no active constraints, solved as a plain linear system
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case Initialized:
		return "INITIALIZED"
	case Iterating:
		return "ITERATING"
	case Converged:
		return "CONVERGED"
	case MaxIterReached:
		return "MAX_ITER_REACHED"
	case Degenerate:
		return "DEGENERATE"
	default:
		return "UNKNOWN"
	}
}

// Config collects the solver knobs. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Formulation   Formulation
	MaxIterations int

	// Exit thresholds: |rp|₂/m, |rd|₂/n and μ respectively.
	PrimalTolerance          float64
	DualTolerance            float64
	ComplementarityTolerance float64

	// EqualStepLength forces a common primal/dual step length.
	EqualStepLength bool
	// AdaptiveEta moves the step-length safety factor toward 1 as the
	// complementarity gap closes; otherwise EtaFixed is used.
	AdaptiveEta bool
	// PredictorOnly skips the corrector solve, one Newton step per
	// iteration.
	PredictorOnly bool
	// WarmStart reuses the previous solution as the initial primal guess
	// when the problem dimensions have not changed between calls.
	WarmStart bool

	// LockSparsityPattern learns the Newton-matrix pattern once and keeps
	// the storage topology fixed across calls of the same dimensions.
	LockSparsityPattern bool
	// MaxShifts overrides the insertion shift bound of the Newton matrix
	// when positive.
	MaxShifts int

	// SkipTangential extracts only the normal direction of frictional
	// contact constraints; tangential multiplier slots are zero-filled in
	// the output layout.
	SkipTangential bool

	Verbose bool
}

// DefaultConfig returns the settings used by the multibody pipeline:
// augmented formulation, predictor-corrector, fixed eta, cold start.
func DefaultConfig() Config {
	return Config{
		Formulation:              Augmented,
		MaxIterations:            consts.MaxIterations,
		PrimalTolerance:          consts.PrimalTolerance,
		DualTolerance:            consts.DualTolerance,
		ComplementarityTolerance: consts.ComplementarityTolerance,
	}
}

// Result summarizes one Solve call.
type Result struct {
	Status     Status
	Iterations int
	SolveCall  int // 1-based index of the Solve call that produced this

	X []float64 // primal solution, copied

	Mu             float64
	PrimalResidual float64 // |rp|₂/m
	DualResidual   float64 // |rd|₂/n
	Objective      float64

	History []IterationRecord
}

// Solver holds the iterate and the assembled Newton system across calls, so
// repeated solves of same-sized problems reuse all allocations and, with
// LockSparsityPattern, the learned storage topology.
type Solver struct {
	cfg     Config
	adapter linsolve.Adapter

	status    Status
	solveCall int
	iterCount int

	n, m int

	x, y, lam    []float64
	dx, dy, dlam []float64
	yPred        []float64
	lamPred      []float64

	c, b   []float64
	rp, rd []float64
	rpd    []float64
	mu     float64

	kkt           *spmat.Matrix
	compliance    *spmat.Matrix
	hasCompliance bool
	rhs           []float64
	vectn, vectm  []float64
	sol           []float64

	history []IterationRecord
}

// New creates a solver bound to a factorization backend.
func New(adapter linsolve.Adapter, cfg Config) *Solver {
	if adapter == nil {
		panic("ipm: nil adapter")
	}
	return &Solver{cfg: cfg, adapter: adapter, status: Uninitialized}
}

// Status returns the current lifecycle state.
func (s *Solver) Status() Status { return s.status }

// SolveCalls returns how many Solve calls have been issued.
func (s *Solver) SolveCalls() int { return s.solveCall }

// SetTolerances overrides the exit thresholds between calls.
func (s *Solver) SetTolerances(primal, dual, complementarity float64) {
	s.cfg.PrimalTolerance = primal
	s.cfg.DualTolerance = dual
	s.cfg.ComplementarityTolerance = complementarity
}

// SetMaxIterations overrides the iteration cap between calls.
func (s *Solver) SetMaxIterations(limit int) {
	s.cfg.MaxIterations = limit
}

// Solve extracts the problem from the descriptor, runs the interior-point
// loop and writes the solution back through FromVectorToUnknowns. Hitting
// the iteration cap is not an error: the best iterate is still written back
// and reported with MaxIterReached.
func (s *Solver) Solve(desc ProblemDescriptor) (*Result, error) {
	if s.cfg.Formulation == Normal {
		return nil, ErrUnsupportedFormulation
	}
	s.solveCall++

	nOld, mOld := s.n, s.m
	s.n = desc.CountActiveVariables()
	s.m = desc.CountActiveConstraints(s.cfg.SkipTangential)
	if s.n <= 0 {
		return nil, fmt.Errorf("ipm: descriptor reports %d active variables", s.n)
	}
	s.hasCompliance = desc.HasCompliance()
	if s.hasCompliance && s.cfg.Formulation != Augmented {
		return nil, fmt.Errorf("ipm: compliance blocks require the %s formulation", Augmented)
	}
	s.resizeState(nOld, mOld)
	desc.LoadVectors(s.c, s.b, s.cfg.SkipTangential)
	s.status = Initialized

	if s.m == 0 {
		return s.solveUnconstrained(desc)
	}

	s.assembleKKT(desc)
	if err := s.startingPoint(nOld, mOld); err != nil {
		return nil, err
	}

	s.status = Iterating
	s.history = s.history[:0]
	s.iterCount = 0
	for s.iterCount < s.cfg.MaxIterations && !s.exitConditionsMet() {
		s.iterCount++
		rec, err := s.iterate()
		if err != nil {
			return nil, err
		}
		s.history = append(s.history, rec)
	}
	if s.exitConditionsMet() {
		s.status = Converged
	} else {
		s.status = MaxIterReached
	}

	s.writeSolution(desc)
	res := s.result()
	if s.cfg.Verbose {
		fmt.Printf("ipm call %d: %s after %d iter, mu %s, |rp|/m %s, |rd|/n %s\n",
			s.solveCall, s.status, s.iterCount,
			util.FormatResidual(res.Mu),
			util.FormatResidual(res.PrimalResidual),
			util.FormatResidual(res.DualResidual))
	}
	return res, nil
}

// solveUnconstrained handles m == 0: the optimum is the single linear solve
// G·x = -c. The iteration counter is left untouched.
func (s *Solver) solveUnconstrained(desc ProblemDescriptor) (*Result, error) {
	n := s.n
	nnzHint := int(consts.KKTFullness*float64(n)*float64(n)) + n
	if s.kkt == nil {
		s.kkt = spmat.New(n, n, nnzHint)
		if s.cfg.MaxShifts > 0 {
			s.kkt.SetMaxShifts(s.cfg.MaxShifts)
		}
	} else {
		s.kkt.SetPatternLock(false)
		s.kkt.Reset(n, n, nnzHint)
	}
	desc.LoadHessian(s.kkt, 0, 0)
	s.kkt.Compress()

	for i := 0; i < n; i++ {
		s.rhs[i] = -s.c[i]
	}
	s.adapter.SetProblem(s.kkt, s.rhs)
	if st := s.adapter.Call(linsolve.Complete); st != linsolve.StatusOK {
		return nil, &SolveError{Job: linsolve.Complete, Status: st, Err: s.adapter.LastError()}
	}
	copy(s.x, s.adapter.Solution()[:n])

	s.mu = 0
	for i := range s.rd {
		s.rd[i] = 0
	}
	s.history = s.history[:0]
	s.status = Degenerate
	s.writeSolution(desc)

	res := s.result()
	res.Iterations = 0
	if s.cfg.Verbose {
		fmt.Printf("ipm call %d: %s, single linear solve\n", s.solveCall, s.status)
	}
	return res, nil
}

// resizeState reallocates the iterate and scratch vectors when the problem
// dimensions change. Vectors keep their contents otherwise, which is what
// warm starting relies on.
func (s *Solver) resizeState(nOld, mOld int) {
	if s.n != nOld || s.x == nil {
		s.x = make([]float64, s.n)
		s.dx = make([]float64, s.n)
		s.c = make([]float64, s.n)
		s.rd = make([]float64, s.n)
		s.vectn = make([]float64, s.n)
	}
	if s.m != mOld || s.y == nil {
		s.y = make([]float64, s.m)
		s.lam = make([]float64, s.m)
		s.dy = make([]float64, s.m)
		s.dlam = make([]float64, s.m)
		s.yPred = make([]float64, s.m)
		s.lamPred = make([]float64, s.m)
		s.b = make([]float64, s.m)
		s.rp = make([]float64, s.m)
		s.rpd = make([]float64, s.m)
		s.vectm = make([]float64, s.m)
	}
	if dim := s.kktDim(); len(s.rhs) != dim {
		s.rhs = make([]float64, dim)
	}
}

// writeSolution lays out [x, -λ] (or contact triplets when SkipTangential)
// and hands it to the descriptor.
func (s *Solver) writeSolution(desc ProblemDescriptor) {
	var want int
	if s.cfg.SkipTangential {
		want = s.n + 3*s.m
	} else {
		want = s.n + s.m
	}
	if len(s.sol) != want {
		s.sol = make([]float64, want)
	}
	copy(s.sol, s.x)
	if s.cfg.SkipTangential {
		for i := 0; i < s.m; i++ {
			s.sol[s.n+3*i] = -s.lam[i]
			s.sol[s.n+3*i+1] = 0
			s.sol[s.n+3*i+2] = 0
		}
	} else {
		for i := 0; i < s.m; i++ {
			s.sol[s.n+i] = -s.lam[i]
		}
	}
	desc.FromVectorToUnknowns(s.sol, s.cfg.SkipTangential)
}

func (s *Solver) result() *Result {
	res := &Result{
		Status:     s.status,
		Iterations: s.iterCount,
		SolveCall:  s.solveCall,
		X:          append([]float64(nil), s.x...),
		Mu:         s.mu,
		Objective:  s.EvaluateObjective(),
	}
	if s.m > 0 {
		res.PrimalResidual = floats.Norm(s.rp, 2) / float64(s.m)
	}
	res.DualResidual = floats.Norm(s.rd, 2) / float64(s.n)
	if len(s.history) > 0 {
		res.History = append([]IterationRecord(nil), s.history...)
	}
	return res
}

// X returns a copy of the current primal iterate.
func (s *Solver) X() []float64 { return append([]float64(nil), s.x...) }

// Slacks returns a copy of the current slack iterate y.
func (s *Solver) Slacks() []float64 { return append([]float64(nil), s.y...) }

// Multipliers returns a copy of the current dual iterate λ.
func (s *Solver) Multipliers() []float64 { return append([]float64(nil), s.lam...) }

// KKTMatrix exposes the assembled Newton matrix, mainly for dumps and tests.
func (s *Solver) KKTMatrix() *spmat.Matrix { return s.kkt }

// KKTResiduals reports the normalized residual norms and the
// complementarity measure of the current iterate.
func (s *Solver) KKTResiduals() (primal, dual, mu float64) {
	if s.m > 0 {
		primal = floats.Norm(s.rp, 2) / float64(s.m)
	}
	if s.n > 0 {
		dual = floats.Norm(s.rd, 2) / float64(s.n)
	}
	return primal, dual, s.mu
}

// EvaluateObjective computes ½ xᵀGx + cᵀx at the current iterate.
func (s *Solver) EvaluateObjective() float64 {
	if s.kkt == nil || s.kkt.Rows() < s.n {
		return 0
	}
	s.multiplyG(s.x, s.vectn)
	return 0.5*floats.Dot(s.x, s.vectn) + floats.Dot(s.x, s.c)
}
