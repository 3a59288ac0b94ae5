package spmat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill writes the given triplets in order.
func fill(m *Matrix, entries [][3]float64) {
	for _, e := range entries {
		m.SetElement(int(e[0]), int(e[1]), e[2], true)
	}
}

func TestSetGetElement(t *testing.T) {
	m := New(3, 3, 4)

	m.SetElement(0, 0, 1.5, true)
	m.SetElement(2, 1, -2.0, true)
	m.SetElement(1, 2, 3.0, true)

	assert.Equal(t, 1.5, m.GetElement(0, 0))
	assert.Equal(t, -2.0, m.GetElement(2, 1))
	assert.Equal(t, 3.0, m.GetElement(1, 2))
	assert.Equal(t, 0.0, m.GetElement(1, 1), "absent entry reads as zero")
	assert.Equal(t, 3, m.NNZ())
}

func TestSetElementOverwriteAndAccumulate(t *testing.T) {
	m := New(2, 2, 4)

	m.SetElement(0, 1, 2.0, true)
	m.SetElement(0, 1, 5.0, true)
	assert.Equal(t, 5.0, m.GetElement(0, 1), "overwrite replaces")

	m.SetElement(0, 1, 1.5, false)
	assert.Equal(t, 6.5, m.GetElement(0, 1), "accumulate adds")
	assert.Equal(t, 1, m.NNZ(), "still a single entry")
}

func TestInsertionOrderIndependence(t *testing.T) {
	entries := [][3]float64{
		{0, 2, 1}, {0, 0, 2}, {1, 1, 3}, {2, 0, 4}, {2, 2, 5}, {1, 0, 6},
	}
	a := New(3, 3, 2) // deliberately undersized to force shifts and growth
	fill(a, entries)

	reversed := make([][3]float64, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	b := New(3, 3, 16)
	fill(b, reversed)

	assert.True(t, a.Equals(b), "content must not depend on insertion order")
	for _, e := range entries {
		assert.Equal(t, e[2], a.GetElement(int(e[0]), int(e[1])))
	}
}

func TestCompressSortsAndRemovesHoles(t *testing.T) {
	m := New(3, 4, 20)
	m.SetElement(1, 3, 1, true)
	m.SetElement(1, 0, 2, true)
	m.SetElement(1, 2, 3, true)
	m.SetElement(0, 1, 4, true)

	m.Compress()
	require.True(t, m.IsCompressed())
	require.NoError(t, m.VerifyMatrix())
	assert.Equal(t, 4, m.UsedLength(), "no holes after compression")

	trail := m.TrailArray()
	lead := m.LeadArray()
	row1 := trail[lead[1]:lead[2]]
	assert.Equal(t, []int{0, 2, 3}, row1, "row sorted by column")

	// Idempotent.
	before := append([]int(nil), m.TrailArray()...)
	m.Compress()
	assert.Equal(t, before, m.TrailArray())
}

func TestCompressPreservesValues(t *testing.T) {
	m := New(4, 4, 3)
	want := map[[2]int]float64{}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if (i+j)%2 == 0 {
				v := float64(10*i + j + 1)
				m.SetElement(i, j, v, true)
				want[[2]int{i, j}] = v
			}
		}
	}
	m.Compress()
	require.NoError(t, m.VerifyMatrix())
	got := map[[2]int]float64{}
	m.ForEachNonZero(func(r, c int, v float64) { got[[2]int{r, c}] = v })
	assert.Equal(t, want, got)
}

func TestPruneDropsSmallEntries(t *testing.T) {
	m := New(2, 3, 8)
	m.SetElement(0, 0, 1e-12, true)
	m.SetElement(0, 1, 0.5, true)
	m.SetElement(1, 2, -1e-12, true)
	m.SetElement(1, 0, -0.5, true)

	m.Prune(1e-10)
	assert.Equal(t, 2, m.NNZ())
	assert.Equal(t, 0.0, m.GetElement(0, 0))
	assert.Equal(t, 0.5, m.GetElement(0, 1))
	assert.Equal(t, -0.5, m.GetElement(1, 0))
}

func TestGrowthKeepsContent(t *testing.T) {
	// Hint of 1 slot per row forces repeated reallocation.
	m := New(5, 20, 5)
	want := map[[2]int]float64{}
	for i := 0; i < 5; i++ {
		for j := 0; j < 20; j += 2 {
			v := float64(i*100 + j)
			m.SetElement(i, j, v, true)
			want[[2]int{i, j}] = v
		}
	}
	assert.Greater(t, m.ReallocCount(), 0, "growth must have happened")
	require.NoError(t, m.VerifyMatrix())
	for key, v := range want {
		assert.Equal(t, v, m.GetElement(key[0], key[1]))
	}
	m.Compress()
	assert.Equal(t, len(want), m.NNZ())
}

func TestColumnMajorStorage(t *testing.T) {
	m := NewColumnMajor(3, 2, 6)
	m.SetElement(2, 0, 7, true)
	m.SetElement(0, 1, 8, true)
	m.SetElement(1, 0, 9, true)

	assert.False(t, m.IsRowMajor())
	assert.Equal(t, 7.0, m.GetElement(2, 0))
	assert.Equal(t, 8.0, m.GetElement(0, 1))
	assert.Equal(t, 9.0, m.GetElement(1, 0))

	m.Compress()
	require.NoError(t, m.VerifyMatrix())
	// Column 0 holds rows 1 and 2 in sorted order.
	lead := m.LeadArray()
	trail := m.TrailArray()
	assert.Equal(t, []int{1, 2}, trail[lead[0]:lead[1]])
}

func TestResetRebuildsStorage(t *testing.T) {
	m := New(3, 3, 9)
	m.SetElement(0, 0, 1, true)
	m.Reset(4, 4, 8)

	assert.Equal(t, 4, m.Rows())
	assert.Equal(t, 0, m.NNZ())
	assert.Equal(t, 0.0, m.GetElement(0, 0))
}

func TestMaxShiftsForcesGrowth(t *testing.T) {
	m := New(4, 8, 8)
	m.SetMaxShifts(1)
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			m.SetElement(i, j, float64(i*8+j+1), true)
		}
	}
	require.NoError(t, m.VerifyMatrix())
	m.Compress()
	assert.Equal(t, 32, m.NNZ())
}

func TestAddSubScale(t *testing.T) {
	a := New(2, 2, 4)
	a.SetElement(0, 0, 1, true)
	a.SetElement(1, 1, 2, true)

	b := New(2, 2, 4)
	b.SetElement(0, 0, 3, true)
	b.SetElement(0, 1, 4, true)

	require.NoError(t, a.Add(b))
	assert.Equal(t, 4.0, a.GetElement(0, 0))
	assert.Equal(t, 4.0, a.GetElement(0, 1))
	assert.Equal(t, 2.0, a.GetElement(1, 1))

	require.NoError(t, a.Sub(b))
	a.Scale(2)
	assert.Equal(t, 2.0, a.GetElement(0, 0))
	assert.Equal(t, 0.0, a.GetElement(0, 1))
	assert.Equal(t, 4.0, a.GetElement(1, 1))

	wrong := New(3, 2, 4)
	assert.ErrorIs(t, a.Add(wrong), ErrDimensionMismatch)
}

func TestMulVec(t *testing.T) {
	// | 1 0 2 |   |1|   | 7 |
	// | 0 3 0 | * |2| = | 6 |
	// | 4 0 5 |   |3|   |19 |
	m := New(3, 3, 9)
	fill(m, [][3]float64{{0, 0, 1}, {0, 2, 2}, {1, 1, 3}, {2, 0, 4}, {2, 2, 5}})

	dst := make([]float64, 3)
	m.MulVec(dst, []float64{1, 2, 3})
	assert.Equal(t, []float64{7, 6, 19}, dst)
}

func TestMulVecClipped(t *testing.T) {
	// Block structure: take the 2x2 lower-left block of a 4x4 matrix.
	m := New(4, 4, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m.SetElement(i, j, float64(4*i+j+1), true)
		}
	}
	dst := make([]float64, 2)
	m.MulVecClipped(dst, []float64{1, 1}, 2, 3, 0, 1, 0, 0)
	assert.Equal(t, []float64{9 + 10, 13 + 14}, dst)

	// Offsets into longer vectors.
	x := []float64{0, 0, 1, 1}
	out := make([]float64, 4)
	m.MulVecClipped(out, x, 2, 3, 0, 1, 2, 1)
	assert.Equal(t, []float64{0, 19, 27, 0}, out)
}

func TestTrimShrinksCapacity(t *testing.T) {
	m := New(2, 2, 100)
	m.SetElement(0, 0, 1, true)
	m.SetElement(1, 1, 2, true)
	m.Compress()
	m.Trim()
	assert.Equal(t, 2, m.Capacity())
	assert.Equal(t, 1.0, m.GetElement(0, 0))
	assert.Equal(t, 2.0, m.GetElement(1, 1))
}

func TestVerifyMatrixCatchesNothingOnHealthyBuild(t *testing.T) {
	m := New(6, 6, 4)
	for i := 0; i < 6; i++ {
		m.SetElement(i, i, 1, true)
		m.SetElement(i, (i+3)%6, 0.5, true)
	}
	require.NoError(t, m.VerifyMatrix())
	m.Compress()
	require.NoError(t, m.VerifyMatrix())
}
