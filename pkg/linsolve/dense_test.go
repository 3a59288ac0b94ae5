package linsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbdsim/ipqp/pkg/spmat"
)

// buildSystem assembles a small compressed matrix from dense rows.
func buildSystem(rows [][]float64) *spmat.Matrix {
	n := len(rows)
	m := spmat.New(n, len(rows[0]), n*len(rows[0]))
	for i, row := range rows {
		for j, v := range row {
			if v != 0 {
				m.SetElement(i, j, v, true)
			}
		}
	}
	m.Compress()
	return m
}

func TestDenseLUSolves3x3(t *testing.T) {
	// x = (1, -2, 3)
	m := buildSystem([][]float64{
		{2, 1, 0},
		{1, 3, 1},
		{0, 1, 4},
	})
	rhs := []float64{2*1 + 1*(-2), 1*1 + 3*(-2) + 1*3, 1*(-2) + 4*3}

	d := NewDenseLU()
	d.SetProblem(m, rhs)
	require.Equal(t, StatusOK, d.Call(Complete))

	sol := d.Solution()
	assert.InDelta(t, 1, sol[0], 1e-12)
	assert.InDelta(t, -2, sol[1], 1e-12)
	assert.InDelta(t, 3, sol[2], 1e-12)
}

func TestDenseLUPivoting(t *testing.T) {
	// Zero on the leading diagonal forces a row swap.
	m := buildSystem([][]float64{
		{0, 1},
		{1, 0},
	})
	d := NewDenseLU()
	d.SetProblem(m, []float64{5, 7})
	require.Equal(t, StatusOK, d.Call(Complete))
	assert.InDelta(t, 7, d.Solution()[0], 1e-12)
	assert.InDelta(t, 5, d.Solution()[1], 1e-12)
}

func TestDenseLUSingular(t *testing.T) {
	m := buildSystem([][]float64{
		{1, 2},
		{2, 4},
	})
	d := NewDenseLU()
	d.SetProblem(m, []float64{1, 2})
	assert.Equal(t, StatusFactorError, d.Call(Complete))
	assert.Error(t, d.LastError())
}

func TestDenseLUSplitPhases(t *testing.T) {
	m := buildSystem([][]float64{
		{4, 0},
		{0, 2},
	})
	d := NewDenseLU()
	d.SetProblem(m, []float64{8, 6})
	require.Equal(t, StatusOK, d.Call(Analyze))
	require.Equal(t, StatusOK, d.Call(Factorize))
	require.Equal(t, StatusOK, d.Call(Solve))
	assert.InDelta(t, 2, d.Solution()[0], 1e-12)
	assert.InDelta(t, 3, d.Solution()[1], 1e-12)
}

func TestCallWithoutProblem(t *testing.T) {
	d := NewDenseLU()
	assert.Equal(t, StatusNoProblem, d.Call(Complete))
}

func TestJobString(t *testing.T) {
	assert.Equal(t, "COMPLETE", Complete.String())
	assert.Equal(t, "ANALYZE", Analyze.String())
	assert.Equal(t, "UNKNOWN", Job(99).String())
}
