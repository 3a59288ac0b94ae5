// Package qp provides an in-memory quadratic program that satisfies
// ipm.ProblemDescriptor, plus a plain-text format for saving and replaying
// problems.
package qp

import (
	"fmt"

	"github.com/mbdsim/ipqp/pkg/ipm"
	"github.com/mbdsim/ipqp/pkg/spmat"
)

// Problem holds a convex QP
//
//	minimize ½ xᵀGx + cᵀx   subject to   Ax ≥ b  (+ compliance E)
//
// in CSR3 form. With Contacts set, constraint rows come in triplets of one
// normal and two tangential directions per contact, and a solver running
// with SkipTangential extracts only the normal rows.
type Problem struct {
	n, m int

	g *spmat.Matrix // n×n Hessian
	a *spmat.Matrix // m×n constraint Jacobian
	e *spmat.Matrix // m×m compliance, nil when rigid
	c []float64
	b []float64

	// Contacts marks the constraint rows as contact triplets. m must then
	// be a multiple of three.
	Contacts bool

	x           []float64 // solution written back by the solver
	multipliers []float64
}

// NewProblem creates an empty QP with n variables and m constraints.
func NewProblem(n, m int) *Problem {
	return &Problem{
		n:           n,
		m:           m,
		g:           spmat.New(n, n, n),
		a:           spmat.New(maxInt(m, 1), n, maxInt(m, 1)),
		c:           make([]float64, n),
		b:           make([]float64, m),
		x:           make([]float64, n),
		multipliers: make([]float64, m),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Variables returns n.
func (p *Problem) Variables() int { return p.n }

// Constraints returns m.
func (p *Problem) Constraints() int { return p.m }

// SetHessian writes G[i,j]. Callers are responsible for symmetry.
func (p *Problem) SetHessian(i, j int, v float64) { p.g.SetElement(i, j, v, true) }

// SetConstraint writes A[i,j].
func (p *Problem) SetConstraint(i, j int, v float64) { p.a.SetElement(i, j, v, true) }

// SetCompliance writes E[i,j], allocating the compliance block on first use.
func (p *Problem) SetCompliance(i, j int, v float64) {
	if p.e == nil {
		p.e = spmat.New(p.m, p.m, p.m)
	}
	p.e.SetElement(i, j, v, true)
}

// SetCost writes c[i].
func (p *Problem) SetCost(i int, v float64) { p.c[i] = v }

// SetBound writes b[i].
func (p *Problem) SetBound(i int, v float64) { p.b[i] = v }

// Solution returns the primal solution written back by the last solve.
func (p *Problem) Solution() []float64 { return p.x }

// Multipliers returns the constraint multipliers of the last solve, one per
// constraint row; tangential rows hold zero after a SkipTangential solve.
func (p *Problem) Multipliers() []float64 { return p.multipliers }

// activeRow maps a stored constraint row to its active index, or reports the
// row inactive under tangential skipping.
func (p *Problem) activeRow(r int, skip bool) (int, bool) {
	if !skip || !p.Contacts {
		return r, true
	}
	if r%3 != 0 {
		return 0, false
	}
	return r / 3, true
}

// CountActiveVariables implements ipm.ProblemDescriptor.
func (p *Problem) CountActiveVariables() int { return p.n }

// CountActiveConstraints implements ipm.ProblemDescriptor.
func (p *Problem) CountActiveConstraints(skipTangential bool) int {
	if skipTangential && p.Contacts {
		return p.m / 3
	}
	return p.m
}

// HasCompliance implements ipm.ProblemDescriptor.
func (p *Problem) HasCompliance() bool { return p.e != nil }

// LoadHessian implements ipm.ProblemDescriptor.
func (p *Problem) LoadHessian(dst ipm.MatrixSetter, rowOff, colOff int) {
	p.g.ForEachNonZero(func(r, c int, v float64) {
		dst.SetElement(rowOff+r, colOff+c, v, true)
	})
}

// LoadConstraints implements ipm.ProblemDescriptor.
func (p *Problem) LoadConstraints(dst ipm.MatrixSetter, rowOff, colOff int, transpose bool, coeff float64, skipTangential bool) {
	p.a.ForEachNonZero(func(r, c int, v float64) {
		ar, ok := p.activeRow(r, skipTangential)
		if !ok {
			return
		}
		if transpose {
			dst.SetElement(rowOff+c, colOff+ar, coeff*v, true)
		} else {
			dst.SetElement(rowOff+ar, colOff+c, coeff*v, true)
		}
	})
}

// LoadCompliance implements ipm.ProblemDescriptor.
func (p *Problem) LoadCompliance(dst ipm.MatrixSetter, rowOff, colOff int, coeff float64, skipTangential bool) {
	if p.e == nil {
		return
	}
	p.e.ForEachNonZero(func(r, c int, v float64) {
		ar, okr := p.activeRow(r, skipTangential)
		ac, okc := p.activeRow(c, skipTangential)
		if !okr || !okc {
			return
		}
		dst.SetElement(rowOff+ar, colOff+ac, coeff*v, true)
	})
}

// LoadVectors implements ipm.ProblemDescriptor.
func (p *Problem) LoadVectors(c, b []float64, skipTangential bool) {
	copy(c, p.c)
	for r := 0; r < p.m; r++ {
		if ar, ok := p.activeRow(r, skipTangential); ok {
			b[ar] = p.b[r]
		}
	}
}

// FromVectorToUnknowns implements ipm.ProblemDescriptor. The incoming layout
// is x followed by negated multipliers: one slot per active constraint, or
// one (−λ, 0, 0) triplet per active constraint under tangential skipping.
func (p *Problem) FromVectorToUnknowns(sol []float64, skipTangential bool) {
	copy(p.x, sol[:p.n])
	rest := sol[p.n:]
	if skipTangential && !p.Contacts {
		// Triplet layout over plain constraints: the normal slot leads
		// each triplet.
		for i := 0; i < p.m; i++ {
			p.multipliers[i] = -rest[3*i]
		}
		return
	}
	for i := 0; i < p.m; i++ {
		p.multipliers[i] = -rest[i]
	}
}

// Validate checks structural consistency before handing the problem to a
// solver.
func (p *Problem) Validate() error {
	if p.n <= 0 {
		return fmt.Errorf("qp: problem has %d variables", p.n)
	}
	if p.Contacts && p.m%3 != 0 {
		return fmt.Errorf("qp: contact problem needs constraint rows in triplets, got %d", p.m)
	}
	if err := p.g.VerifyMatrix(); err != nil {
		return fmt.Errorf("qp: hessian: %v", err)
	}
	if err := p.a.VerifyMatrix(); err != nil {
		return fmt.Errorf("qp: constraints: %v", err)
	}
	if p.e != nil {
		if err := p.e.VerifyMatrix(); err != nil {
			return fmt.Errorf("qp: compliance: %v", err)
		}
	}
	return nil
}
