package ipm

import "math"

// startingPoint builds the initial strictly-feasible-in-sign iterate
// following Nocedal & Wright: start from a rough guess, take one affine
// Newton step for the slack/multiplier pair and push both away from the
// boundary.
func (s *Solver) startingPoint(nOld, mOld int) error {
	coldPrimal := !s.cfg.WarmStart || s.solveCall == 1 || s.n != nOld
	coldDual := !s.cfg.WarmStart || s.solveCall == 1 || s.m != mOld

	if coldPrimal {
		for i := range s.x {
			s.x[i] = 1
		}
	}
	if coldDual {
		for i := range s.lam {
			s.lam[i] = 1
		}
	}
	// y = A·x - b, pushed away from zero so the diag(y/λ) block of the
	// affine system below stays positive; an unclamped y with y_i = -λ_i
	// makes rows i and n+i linearly dependent and the solve singular.
	s.multiplyA(s.x, s.y)
	for i := range s.y {
		s.y[i] = clampMagnitude(s.y[i] - s.b[i])
	}
	s.fullUpdateResiduals()

	if err := s.kktSolve(0); err != nil {
		return err
	}
	for i := range s.y {
		s.y[i] += s.dy[i]
		s.lam[i] += s.dlam[i]
	}
	// Push the pair strictly inside the positive orthant.
	for i := range s.y {
		s.y[i] = clampMagnitude(s.y[i])
		s.lam[i] = clampMagnitude(s.lam[i])
	}
	s.fullUpdateResiduals()
	return nil
}

// clampMagnitude maps v to max(|v|, 1).
func clampMagnitude(v float64) float64 {
	if a := math.Abs(v); a > 1 {
		return a
	}
	return 1
}
