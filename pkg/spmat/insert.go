package spmat

import "github.com/mbdsim/ipqp/internal/consts"

// makeRoom frees the slot at pos for an insertion into row lead by searching
// outward for the nearest hole within maxShifts slots and shifting the
// entries in between. Returns the freed slot, or -1 when no hole is
// reachable and the storage must grow.
func (m *Matrix) makeRoom(lead, pos int) int {
	fwd, bwd := -1, -1

	limit := pos + m.maxShifts
	if limit < pos { // overflow with maxShifts = MaxInt
		limit = len(m.trailIndex) - 1
	}
	for k := pos; k < len(m.trailIndex) && k <= limit; k++ {
		if !m.initialized[k] {
			fwd = k
			break
		}
	}

	limit = pos - m.maxShifts
	if limit > pos {
		limit = 0
	}
	for k := pos - 1; k >= 0 && k >= limit; k-- {
		if !m.initialized[k] {
			bwd = k
			break
		}
	}

	switch {
	case fwd < 0 && bwd < 0:
		return -1
	case bwd < 0 || (fwd >= 0 && fwd-pos <= pos-bwd):
		m.shiftRight(lead, pos, fwd)
		return pos
	default:
		m.shiftLeft(lead, bwd, pos)
		return pos - 1
	}
}

// shiftRight moves the block [pos, hole) one slot up so the hole lands on
// pos. Row boundaries falling inside [pos, hole] advance with the block.
func (m *Matrix) shiftRight(lead, pos, hole int) {
	for k := hole; k > pos; k-- {
		m.trailIndex[k] = m.trailIndex[k-1]
		m.values[k] = m.values[k-1]
		m.initialized[k] = m.initialized[k-1]
	}
	m.initialized[pos] = false
	m.shiftCount += hole - pos

	leadDim := m.leadDim()
	for j := lead + 1; j <= leadDim && m.leadIndex[j] <= hole; j++ {
		m.leadIndex[j]++
	}
}

// shiftLeft moves the block (hole, pos) one slot down so the freed slot ends
// up at pos-1. Row boundaries falling inside (hole, pos] retreat with it.
func (m *Matrix) shiftLeft(lead, hole, pos int) {
	for k := hole; k < pos-1; k++ {
		m.trailIndex[k] = m.trailIndex[k+1]
		m.values[k] = m.values[k+1]
		m.initialized[k] = m.initialized[k+1]
	}
	m.initialized[pos-1] = false
	m.shiftCount += pos - 1 - hole

	for j := lead; j >= 0 && m.leadIndex[j] > hole; j-- {
		m.leadIndex[j]--
	}
}

// growAndInsert reallocates the storage geometrically larger, redistributes
// the free space across rows proportionally to their current entry count,
// and places a slot for (lead, trail) in sorted position while copying.
// Returns the slot of the new entry; the caller fills it in.
func (m *Matrix) growAndInsert(lead, trail int) int {
	leadDim := m.leadDim()

	rowNNZ := make([]int, leadDim)
	nnz := 0
	for i := 0; i < leadDim; i++ {
		for k := m.leadIndex[i]; k < m.leadIndex[i+1]; k++ {
			if m.initialized[k] {
				rowNNZ[i]++
			}
		}
		nnz += rowNNZ[i]
	}

	newCap := int(consts.GrowthFactor * float64(len(m.trailIndex)))
	if min := nnz + 1 + leadDim; newCap < min {
		newCap = min
	}

	trailNew := make([]int, newCap)
	valuesNew := make([]float64, newCap)
	initNew := make([]bool, newCap)
	leadNew := make([]int, leadDim+1)

	// Free space beyond the entries themselves, shared out by row weight.
	free := newCap - (nnz + 1)
	slot := -1
	pos := 0
	for i := 0; i < leadDim; i++ {
		leadNew[i] = pos
		if i == lead {
			pos = m.copyRowWithInsert(i, trail, trailNew, valuesNew, initNew, pos)
			slot = pos - 1
			// The new entry was merged in sorted position; recover its slot.
			for k := leadNew[i]; k < pos; k++ {
				if trailNew[k] == trail {
					slot = k
					break
				}
			}
		} else {
			pos = m.copyRow(i, trailNew, valuesNew, initNew, pos)
		}
		extra := 0
		if nnz > 0 {
			extra = free * rowNNZ[i] / nnz
		}
		for e := 0; e < extra; e++ {
			trailNew[pos] = -1
			pos++
		}
	}
	leadNew[leadDim] = newCap
	for k := pos; k < newCap; k++ {
		trailNew[k] = -1
	}

	m.leadIndex = leadNew
	m.trailIndex = trailNew
	m.values = valuesNew
	m.initialized = initNew
	m.compressed = false
	m.reallocCount++
	if m.patternLocked {
		m.lockBroken = true
	}
	return slot
}

func (m *Matrix) copyRow(i int, trailNew []int, valuesNew []float64, initNew []bool, pos int) int {
	for k := m.leadIndex[i]; k < m.leadIndex[i+1]; k++ {
		if !m.initialized[k] {
			continue
		}
		trailNew[pos] = m.trailIndex[k]
		valuesNew[pos] = m.values[k]
		initNew[pos] = true
		pos++
	}
	return pos
}

// copyRowWithInsert copies row i like copyRow but reserves an uninitialized
// slot for the pending trail, placed before the first existing entry with a
// larger trailing index.
func (m *Matrix) copyRowWithInsert(i, trail int, trailNew []int, valuesNew []float64, initNew []bool, pos int) int {
	placed := false
	for k := m.leadIndex[i]; k < m.leadIndex[i+1]; k++ {
		if !m.initialized[k] {
			continue
		}
		if !placed && m.trailIndex[k] > trail {
			trailNew[pos] = trail
			pos++
			placed = true
		}
		trailNew[pos] = m.trailIndex[k]
		valuesNew[pos] = m.values[k]
		initNew[pos] = true
		pos++
	}
	if !placed {
		trailNew[pos] = trail
		pos++
	}
	return pos
}
