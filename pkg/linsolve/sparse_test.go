package linsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseLUSolves3x3(t *testing.T) {
	m := buildSystem([][]float64{
		{4, -1, 0},
		{-1, 4, -1},
		{0, -1, 4},
	})
	// x = (1, 2, 3)
	rhs := []float64{4 - 2, -1 + 8 - 3, -2 + 12}

	s := NewSparseLU()
	defer s.Destroy()
	s.SetProblem(m, rhs)
	require.Equal(t, StatusOK, s.Call(Complete))

	sol := s.Solution()
	require.Len(t, sol, 3)
	assert.InDelta(t, 1, sol[0], 1e-9)
	assert.InDelta(t, 2, sol[1], 1e-9)
	assert.InDelta(t, 3, sol[2], 1e-9)
}

func TestSparseLURepeatedSolves(t *testing.T) {
	m := buildSystem([][]float64{
		{2, 0},
		{0, 5},
	})
	s := NewSparseLU()
	defer s.Destroy()

	s.SetProblem(m, []float64{2, 5})
	require.Equal(t, StatusOK, s.Call(Complete))
	assert.InDelta(t, 1, s.Solution()[0], 1e-9)
	assert.InDelta(t, 1, s.Solution()[1], 1e-9)

	// Same structure, new values and right-hand side.
	m.Reset(2, 2, 4)
	m.SetElement(0, 0, 4, true)
	m.SetElement(1, 1, 10, true)
	m.Compress()
	s.SetProblem(m, []float64{4, 20})
	require.Equal(t, StatusOK, s.Call(Complete))
	assert.InDelta(t, 1, s.Solution()[0], 1e-9)
	assert.InDelta(t, 2, s.Solution()[1], 1e-9)
}

func TestSparseLUIndefinite(t *testing.T) {
	// Saddle-point shape: the kind of system the interior-point loop
	// produces. x = (1, 1, 1).
	m := buildSystem([][]float64{
		{2, 0, -1},
		{0, 2, -1},
		{1, 1, 1},
	})
	rhs := []float64{1, 1, 3}

	s := NewSparseLU()
	defer s.Destroy()
	s.SetProblem(m, rhs)
	require.Equal(t, StatusOK, s.Call(Complete))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1, s.Solution()[i], 1e-9)
	}
}

func TestSparseLUCallWithoutProblem(t *testing.T) {
	s := NewSparseLU()
	assert.Equal(t, StatusNoProblem, s.Call(Complete))
}
