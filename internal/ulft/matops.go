package ulft

import "gonum.org/v1/gonum/mat"

// Throughout this package a nil *mat.Dense stands for a zero block whose
// size is implied by its position; gonum cannot represent empty matrices,
// so zero-width blocks are nil as well.

func padSteps(xs []*mat.Dense, total int) []*mat.Dense {
	if xs == nil {
		return make([]*mat.Dense, total)
	}
	if len(xs) != total {
		return nil
	}
	return xs
}

func cloneSteps(xs []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(xs))
	for i, m := range xs {
		out[i] = cloneDense(m)
	}
	return out
}

func cloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	var out mat.Dense
	out.CloneFrom(m)
	return &out
}

// rowSlice copies rows [lo, lo+n) of m; nil when the slice is empty.
func rowSlice(m *mat.Dense, lo, n int) *mat.Dense {
	if m == nil || n == 0 {
		return nil
	}
	_, c := m.Dims()
	return cloneDense(m.Slice(lo, lo+n, 0, c).(*mat.Dense))
}

// colSlice copies columns [lo, lo+n) of m; nil when the slice is empty.
func colSlice(m *mat.Dense, lo, n int) *mat.Dense {
	if m == nil || n == 0 {
		return nil
	}
	r, _ := m.Dims()
	return cloneDense(m.Slice(0, r, lo, lo+n).(*mat.Dense))
}

// matMul multiplies with nil treated as zero.
func matMul(a, b *mat.Dense) *mat.Dense {
	if a == nil || b == nil {
		return nil
	}
	var out mat.Dense
	out.Mul(a, b)
	return &out
}

// matAdd adds with nil treated as zero.
func matAdd(a, b *mat.Dense) *mat.Dense {
	if a == nil {
		return cloneDense(b)
	}
	if b == nil {
		return cloneDense(a)
	}
	var out mat.Dense
	out.Add(a, b)
	return &out
}

func matScale(s float64, m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	var out mat.Dense
	out.Scale(s, m)
	return &out
}

// assemble builds a matrix from a grid of blocks with the given per-row
// heights and per-column widths; nil blocks are zero. Returns nil for an
// empty result.
func assemble(heights, widths []int, blocks [][]*mat.Dense) *mat.Dense {
	rows, cols := 0, 0
	for _, h := range heights {
		rows += h
	}
	for _, w := range widths {
		cols += w
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	out := mat.NewDense(rows, cols, nil)
	ro := 0
	for i, h := range heights {
		co := 0
		for j, w := range widths {
			if blk := blocks[i][j]; blk != nil && h > 0 && w > 0 {
				out.Slice(ro, ro+h, co, co+w).(*mat.Dense).Copy(blk)
			}
			co += w
		}
		ro += h
	}
	return out
}

func eye(n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
