package ss

import "gonum.org/v1/gonum/mat"

// Nil *mat.Dense values stand for zero blocks of implied size throughout;
// gonum cannot represent empty matrices, so zero-width blocks are nil too.

// part copies the sub-block rows [r0, r0+rn), columns [c0, c0+cn).
func part(m *mat.Dense, r0, rn, c0, cn int) *mat.Dense {
	if m == nil || rn == 0 || cn == 0 {
		return nil
	}
	return cloneDense(m.Slice(r0, r0+rn, c0, c0+cn).(*mat.Dense))
}

func mml(a, b *mat.Dense) *mat.Dense {
	if a == nil || b == nil {
		return nil
	}
	var out mat.Dense
	out.Mul(a, b)
	return &out
}

func madd(a, b *mat.Dense) *mat.Dense {
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

func zeroGrid(k int) [][]*mat.Dense {
	g := make([][]*mat.Dense, k)
	for i := range g {
		g[i] = make([]*mat.Dense, k)
	}
	return g
}

// grid builds a matrix from a grid of blocks with the given per-row heights
// and per-column widths; nil blocks are zero. Returns nil for an empty
// result.
func grid(heights, widths []int, blocks [][]*mat.Dense) *mat.Dense {
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
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
