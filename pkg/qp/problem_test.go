package qp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbdsim/ipqp/pkg/spmat"
)

func sampleProblem() *Problem {
	p := NewProblem(2, 2)
	p.SetHessian(0, 0, 2)
	p.SetHessian(0, 1, 0.5)
	p.SetHessian(1, 0, 0.5)
	p.SetHessian(1, 1, 3)
	p.SetConstraint(0, 0, 1)
	p.SetConstraint(1, 1, -1)
	p.SetCost(0, -1)
	p.SetCost(1, 4)
	p.SetBound(0, 0.5)
	return p
}

func TestCounts(t *testing.T) {
	p := sampleProblem()
	assert.Equal(t, 2, p.CountActiveVariables())
	assert.Equal(t, 2, p.CountActiveConstraints(false))
	assert.Equal(t, 2, p.CountActiveConstraints(true), "no triplets, nothing to skip")
	assert.False(t, p.HasCompliance())
	require.NoError(t, p.Validate())
}

func TestLoadHessianWithOffset(t *testing.T) {
	p := sampleProblem()
	dst := spmat.New(4, 4, 8)
	p.LoadHessian(dst, 1, 2)

	assert.Equal(t, 2.0, dst.GetElement(1, 2))
	assert.Equal(t, 0.5, dst.GetElement(1, 3))
	assert.Equal(t, 3.0, dst.GetElement(2, 3))
}

func TestLoadConstraintsTransposeAndCoeff(t *testing.T) {
	p := sampleProblem()

	plain := spmat.New(2, 2, 4)
	p.LoadConstraints(plain, 0, 0, false, 1, false)
	assert.Equal(t, 1.0, plain.GetElement(0, 0))
	assert.Equal(t, -1.0, plain.GetElement(1, 1))

	negT := spmat.New(2, 2, 4)
	p.LoadConstraints(negT, 0, 0, true, -1, false)
	assert.Equal(t, -1.0, negT.GetElement(0, 0))
	assert.Equal(t, 1.0, negT.GetElement(1, 1))
}

func TestLoadVectors(t *testing.T) {
	p := sampleProblem()
	c := make([]float64, 2)
	b := make([]float64, 2)
	p.LoadVectors(c, b, false)
	assert.Equal(t, []float64{-1, 4}, c)
	assert.Equal(t, []float64{0.5, 0}, b)
}

func TestContactSkipping(t *testing.T) {
	p := NewProblem(2, 3)
	p.Contacts = true
	p.SetConstraint(0, 0, 5) // normal
	p.SetConstraint(1, 1, 6) // tangential
	p.SetConstraint(2, 0, 7) // tangential
	p.SetBound(0, 1.5)
	p.SetBound(1, 9)

	assert.Equal(t, 1, p.CountActiveConstraints(true))
	assert.Equal(t, 3, p.CountActiveConstraints(false))

	dst := spmat.New(1, 2, 4)
	p.LoadConstraints(dst, 0, 0, false, 1, true)
	assert.Equal(t, 5.0, dst.GetElement(0, 0))
	assert.Equal(t, 0.0, dst.GetElement(0, 1), "tangential rows excluded")

	b := make([]float64, 1)
	p.LoadVectors(make([]float64, 2), b, true)
	assert.Equal(t, []float64{1.5}, b)
}

func TestContactTripletValidation(t *testing.T) {
	p := NewProblem(2, 4)
	p.Contacts = true
	assert.Error(t, p.Validate(), "contact rows must come in triplets")
}

func TestFromVectorToUnknowns(t *testing.T) {
	p := sampleProblem()
	p.FromVectorToUnknowns([]float64{1, 2, -3, -4}, false)
	assert.Equal(t, []float64{1, 2}, p.Solution())
	assert.Equal(t, []float64{3, 4}, p.Multipliers())
}

func TestFromVectorToUnknownsTriplets(t *testing.T) {
	// Plain constraints solved with tangential skipping: one triplet per
	// constraint, normal slot first.
	p := sampleProblem()
	p.FromVectorToUnknowns([]float64{1, 2, -3, 0, 0, -4, 0, 0}, true)
	assert.Equal(t, []float64{3, 4}, p.Multipliers())

	// Contact constraints: the triplets map one-to-one onto the rows.
	pc := NewProblem(1, 3)
	pc.Contacts = true
	pc.FromVectorToUnknowns([]float64{9, -5, 0, 0}, true)
	assert.Equal(t, []float64{9}, pc.Solution())
	assert.Equal(t, []float64{5, 0, 0}, pc.Multipliers())
}

func TestCompliance(t *testing.T) {
	p := sampleProblem()
	p.SetCompliance(0, 0, 0.25)
	assert.True(t, p.HasCompliance())

	dst := spmat.New(2, 2, 4)
	p.LoadCompliance(dst, 0, 0, -1, false)
	assert.Equal(t, -0.25, dst.GetElement(0, 0))
}
