package ipm

// MatrixSetter is the write surface a descriptor assembles into. Both
// spmat.Matrix and spmat.PatternLearner satisfy it, which lets the solver
// run the same assembly code as a dry pass to learn the sparsity pattern.
type MatrixSetter interface {
	SetElement(row, col int, value float64, overwrite bool)
}

// ProblemDescriptor extracts a convex QP from an external source, typically
// the constraint layer of a multibody simulation:
//
//	minimize ½ xᵀGx + cᵀx   subject to   Ax ≥ b
//
// with an optional compliance block E softening the constraints. The
// skipTangential flag restricts constraint extraction to the normal
// direction of frictional contacts; the tangential slots still exist in the
// unknown-vector layout and are zero-filled by the solver.
type ProblemDescriptor interface {
	// CountActiveVariables returns n, the number of primal unknowns.
	CountActiveVariables() int
	// CountActiveConstraints returns m, the number of active inequality rows.
	CountActiveConstraints(skipTangential bool) int

	// LoadHessian writes G into dst with its (0,0) entry at (rowOff, colOff).
	LoadHessian(dst MatrixSetter, rowOff, colOff int)
	// LoadConstraints writes coeff*A (or coeff*Aᵀ when transpose is set)
	// into dst with its (0,0) entry at (rowOff, colOff).
	LoadConstraints(dst MatrixSetter, rowOff, colOff int, transpose bool, coeff float64, skipTangential bool)

	// HasCompliance reports whether a compliance block exists.
	HasCompliance() bool
	// LoadCompliance writes coeff*E into dst at the offset.
	LoadCompliance(dst MatrixSetter, rowOff, colOff int, coeff float64, skipTangential bool)

	// LoadVectors fills the cost and constraint vectors in the solver's sign
	// convention.
	LoadVectors(c, b []float64, skipTangential bool)

	// FromVectorToUnknowns consumes the final solution laid out as x
	// followed by the negated multipliers: one slot per constraint, or one
	// contact triplet (−λ, 0, 0) per constraint when skipTangential is set.
	FromVectorToUnknowns(sol []float64, skipTangential bool)
}
