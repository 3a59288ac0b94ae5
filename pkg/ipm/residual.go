package ipm

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mbdsim/ipqp/internal/consts"
)

// fullUpdateResiduals recomputes the primal and dual residuals and the
// complementarity measure from scratch:
//
//	rp = A·x - y - b + E·λ
//	rd = G·x + c - Aᵀ·λ
//	μ  = yᵀλ / m
func (s *Solver) fullUpdateResiduals() {
	s.multiplyA(s.x, s.rp)
	for i := range s.rp {
		s.rp[i] -= s.y[i] + s.b[i]
	}
	if s.hasCompliance {
		s.compliance.MulVec(s.vectm, s.lam)
		floats.Add(s.rp, s.vectm)
	}

	s.multiplyG(s.x, s.rd)
	floats.Add(s.rd, s.c)
	s.multiplyNegAT(s.lam, s.vectn)
	floats.Add(s.rd, s.vectn)

	s.mu = floats.Dot(s.y, s.lam) / float64(s.m)
}

// newtonStepLength returns the largest alpha in (0, 1] keeping
// vect + alpha*dvect at least (1-eta) of the way from the boundary:
// alpha <= -eta * vect[i] / dvect[i] over the components moving down.
func newtonStepLength(vect, dvect []float64, eta float64) float64 {
	alpha := 1.0
	for i := range vect {
		if dvect[i] < 0 {
			if a := -eta * vect[i] / dvect[i]; a < alpha {
				alpha = a
			}
		}
	}
	if alpha < 0 {
		return 0
	}
	return alpha
}

// iterate performs one predictor(-corrector) round and advances the iterate.
// Residuals are updated incrementally: a Newton step scales them by
// (1 - alpha), plus a Hessian correction on rd when the primal and dual step
// lengths differ.
func (s *Solver) iterate() (IterationRecord, error) {
	rec := IterationRecord{SolveCall: s.solveCall, Iteration: s.iterCount}

	// Affine predictor step.
	if err := s.kktSolve(0); err != nil {
		return rec, err
	}
	eta := s.stepEta()

	if s.cfg.PredictorOnly {
		// Damped affine step; the safety factor keeps (y, λ) strictly
		// positive since no corrector follows.
		alphaPrim, alphaDual := s.stepLengths(eta)
		s.advance(alphaPrim, alphaDual, &rec)
		return rec, nil
	}

	// Full affine trial step, only to size the centering parameter.
	alphaPrim, alphaDual := s.stepLengths(1)
	copy(s.yPred, s.y)
	floats.AddScaled(s.yPred, alphaPrim, s.dy)
	copy(s.lamPred, s.lam)
	floats.AddScaled(s.lamPred, alphaDual, s.dlam)
	muPred := floats.Dot(s.yPred, s.lamPred) / float64(s.m)

	// Corrector step with centering sigma = (mu_pred/mu)^3.
	sigma := muPred / s.mu
	sigma = sigma * sigma * sigma
	if err := s.kktSolve(sigma); err != nil {
		return rec, err
	}
	alphaPrim, alphaDual = s.stepLengths(eta)
	rec.Sigma = sigma

	s.advance(alphaPrim, alphaDual, &rec)
	return rec, nil
}

// stepLengths runs the ratio test on both pairs, honoring EqualStepLength.
func (s *Solver) stepLengths(eta float64) (alphaPrim, alphaDual float64) {
	alphaPrim = newtonStepLength(s.y, s.dy, eta)
	alphaDual = newtonStepLength(s.lam, s.dlam, eta)
	if s.cfg.EqualStepLength {
		alphaPrim = math.Min(alphaPrim, alphaDual)
		alphaDual = alphaPrim
	}
	return alphaPrim, alphaDual
}

// advance applies the current Newton step with the given lengths and updates
// the residuals incrementally.
func (s *Solver) advance(alphaPrim, alphaDual float64, rec *IterationRecord) {
	floats.AddScaled(s.x, alphaPrim, s.dx)
	floats.AddScaled(s.y, alphaPrim, s.dy)
	floats.AddScaled(s.lam, alphaDual, s.dlam)

	floats.Scale(1-alphaPrim, s.rp)
	floats.Scale(1-alphaDual, s.rd)
	if alphaPrim != alphaDual {
		s.multiplyG(s.dx, s.vectn)
		floats.AddScaled(s.rd, alphaPrim-alphaDual, s.vectn)
	}
	s.mu = floats.Dot(s.y, s.lam) / float64(s.m)

	rec.AlphaPrimal = alphaPrim
	rec.AlphaDual = alphaDual
	rec.Mu = s.mu
	rec.PrimalResidual = floats.Norm(s.rp, 2) / float64(s.m)
	rec.DualResidual = floats.Norm(s.rd, 2) / float64(s.n)
}

// stepEta returns the step-length safety factor, drifting toward 1 as the
// complementarity gap closes when the adaptive schedule is on.
func (s *Solver) stepEta() float64 {
	if s.cfg.AdaptiveEta {
		return consts.EtaBase + consts.EtaSpan*math.Exp(-s.mu*float64(s.m))
	}
	return consts.EtaFixed
}

// exitConditionsMet tests the three exit thresholds at once.
func (s *Solver) exitConditionsMet() bool {
	if s.mu >= s.cfg.ComplementarityTolerance {
		return false
	}
	if floats.Norm(s.rp, 2)/float64(s.m) >= s.cfg.PrimalTolerance {
		return false
	}
	return floats.Norm(s.rd, 2)/float64(s.n) < s.cfg.DualTolerance
}
