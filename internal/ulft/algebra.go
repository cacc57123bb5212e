package ulft

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
)

// splitIn partitions the columns of a b or d matrix at array index t into
// the uncertainty block w and the free block.
func (u *Ulft) splitIn(m *mat.Dense, t int) (w, free *mat.Dense) {
	uw := u.UncertaintyOutDim(t)
	return colSlice(m, 0, uw), colSlice(m, uw, u.InDim(t)-uw)
}

// splitOut partitions the rows of a c or d matrix at array index t into the
// uncertainty block z and the performance block.
func (u *Ulft) splitOut(m *mat.Dense, t int) (z, perf *mat.Dense) {
	uz := u.UncertaintyInDim(t)
	return rowSlice(m, 0, uz), rowSlice(m, uz, u.OutDim(t)-uz)
}

// Negate returns the system with its performance outputs negated; the
// uncertainty loop is untouched.
func (u *Ulft) Negate() *Ulft {
	total := u.hp.Total()
	c := make([]*mat.Dense, total)
	d := make([]*mat.Dense, total)
	for t := 0; t < total; t++ {
		cz, ce := u.splitOut(u.c[t], t)
		dz, de := u.splitOut(u.d[t], t)
		n := u.StateDim(t)
		heights := []int{u.UncertaintyInDim(t), u.PerfOutDim(t)}
		c[t] = assemble(heights, []int{n}, [][]*mat.Dense{{cz}, {matScale(-1, ce)}})
		d[t] = assemble(heights, []int{u.InDim(t)}, [][]*mat.Dense{{dz}, {matScale(-1, de)}})
	}
	out := *u
	out.a = cloneSteps(u.a)
	out.b = cloneSteps(u.b)
	out.c = c
	out.d = d
	return &out
}

// align brings two systems to their minimal common horizon-period. The
// timesteps must agree.
func align(x, y *Ulft) (*Ulft, *Ulft, error) {
	if x.ts != y.ts {
		return nil, nil, fmt.Errorf("%w: timesteps %g and %g",
			delta.ErrTimeDomain, float64(x.ts), float64(y.ts))
	}
	hp, err := horizon.Common(x.hp, y.hp)
	if err != nil {
		return nil, nil, err
	}
	xm, err := x.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, err
	}
	ym, err := y.MatchHorizonPeriod(hp)
	if err != nil {
		return nil, nil, err
	}
	return xm, ym, nil
}

// Add returns the parallel sum: both systems driven by the shared free
// input, performance outputs added, uncertainty collections concatenated.
func Add(x, y *Ulft) (*Ulft, error) {
	x, y, err := align(x, y)
	if err != nil {
		return nil, err
	}
	total := x.hp.Total()
	for t := 0; t < total; t++ {
		if x.FreeInDim(t) != y.FreeInDim(t) || x.PerfOutDim(t) != y.PerfOutDim(t) {
			return nil, fmt.Errorf("%w: step %d: %dx%d and %dx%d io ports",
				horizon.ErrDimension, t,
				x.PerfOutDim(t), x.FreeInDim(t), y.PerfOutDim(t), y.FreeInDim(t))
		}
	}
	seq, err := mergeSequences(x.seq, y.seq)
	if err != nil {
		return nil, err
	}

	a := make([]*mat.Dense, total)
	b := make([]*mat.Dense, total)
	c := make([]*mat.Dense, total)
	d := make([]*mat.Dense, total)
	for t := 0; t < total; t++ {
		next := x.hp.Next(t)
		n1, n2 := x.StateDim(t), y.StateDim(t)
		r1, r2 := x.StateDim(next), y.StateDim(next)
		w1, w2 := x.UncertaintyOutDim(t), y.UncertaintyOutDim(t)
		z1, z2 := x.UncertaintyInDim(t), y.UncertaintyInDim(t)
		fi, pe := x.FreeInDim(t), x.PerfOutDim(t)

		b1w, b1f := x.splitIn(x.b[t], t)
		b2w, b2f := y.splitIn(y.b[t], t)
		c1z, c1e := x.splitOut(x.c[t], t)
		c2z, c2e := y.splitOut(y.c[t], t)
		d1w, d1f := x.splitIn(x.d[t], t)
		d2w, d2f := y.splitIn(y.d[t], t)
		d1zw, d1ew := rowSlice(d1w, 0, z1), rowSlice(d1w, z1, pe)
		d1zf, d1ef := rowSlice(d1f, 0, z1), rowSlice(d1f, z1, pe)
		d2zw, d2ew := rowSlice(d2w, 0, z2), rowSlice(d2w, z2, pe)
		d2zf, d2ef := rowSlice(d2f, 0, z2), rowSlice(d2f, z2, pe)

		a[t] = assemble([]int{r1, r2}, []int{n1, n2},
			[][]*mat.Dense{{x.a[t], nil}, {nil, y.a[t]}})
		b[t] = assemble([]int{r1, r2}, []int{w1, w2, fi},
			[][]*mat.Dense{{b1w, nil, b1f}, {nil, b2w, b2f}})
		c[t] = assemble([]int{z1, z2, pe}, []int{n1, n2},
			[][]*mat.Dense{{c1z, nil}, {nil, c2z}, {c1e, c2e}})
		d[t] = assemble([]int{z1, z2, pe}, []int{w1, w2, fi},
			[][]*mat.Dense{
				{d1zw, nil, d1zf},
				{nil, d2zw, d2zf},
				{d1ew, d2ew, matAdd(d1ef, d2ef)},
			})
	}
	return New(a, b, c, d, seq, x.hp, x.ts)
}

// Sub returns x − y.
func Sub(x, y *Ulft) (*Ulft, error) {
	return Add(x, y.Negate())
}

// Series returns the cascade y∘x: the performance output of x drives the
// free input of y. y must carry no disturbance blocks, since its free input
// becomes an internal signal.
func Series(x, y *Ulft) (*Ulft, error) {
	if len(y.Deltas().Disturbances()) > 0 {
		return nil, fmt.Errorf("%w: downstream system carries disturbance blocks", delta.ErrUnsupported)
	}
	x, y, err := align(x, y)
	if err != nil {
		return nil, err
	}
	total := x.hp.Total()
	for t := 0; t < total; t++ {
		if x.PerfOutDim(t) != y.FreeInDim(t) {
			return nil, fmt.Errorf("%w: step %d: %d outputs into %d inputs",
				horizon.ErrDimension, t, x.PerfOutDim(t), y.FreeInDim(t))
		}
	}
	seq, err := mergeSequences(x.seq, y.seq)
	if err != nil {
		return nil, err
	}

	a := make([]*mat.Dense, total)
	b := make([]*mat.Dense, total)
	c := make([]*mat.Dense, total)
	d := make([]*mat.Dense, total)
	for t := 0; t < total; t++ {
		next := x.hp.Next(t)
		n1, n2 := x.StateDim(t), y.StateDim(t)
		r1, r2 := x.StateDim(next), y.StateDim(next)
		w1, w2 := x.UncertaintyOutDim(t), y.UncertaintyOutDim(t)
		z1, z2 := x.UncertaintyInDim(t), y.UncertaintyInDim(t)
		fi := x.FreeInDim(t)
		pe := y.PerfOutDim(t)

		b1w, b1f := x.splitIn(x.b[t], t)
		b2w, b2f := y.splitIn(y.b[t], t)
		c1z, c1e := x.splitOut(x.c[t], t)
		c2z, c2e := y.splitOut(y.c[t], t)
		d1w, d1f := x.splitIn(x.d[t], t)
		d2w, d2f := y.splitIn(y.d[t], t)
		d1zw, d1ew := rowSlice(d1w, 0, z1), rowSlice(d1w, z1, x.PerfOutDim(t))
		d1zf, d1ef := rowSlice(d1f, 0, z1), rowSlice(d1f, z1, x.PerfOutDim(t))
		d2zw, d2ew := rowSlice(d2w, 0, z2), rowSlice(d2w, z2, pe)
		d2zf, d2ef := rowSlice(d2f, 0, z2), rowSlice(d2f, z2, pe)

		a[t] = assemble([]int{r1, r2}, []int{n1, n2},
			[][]*mat.Dense{{x.a[t], nil}, {matMul(b2f, c1e), y.a[t]}})
		b[t] = assemble([]int{r1, r2}, []int{w1, w2, fi},
			[][]*mat.Dense{
				{b1w, nil, b1f},
				{matMul(b2f, d1ew), b2w, matMul(b2f, d1ef)},
			})
		c[t] = assemble([]int{z1, z2, pe}, []int{n1, n2},
			[][]*mat.Dense{
				{c1z, nil},
				{matMul(d2zf, c1e), c2z},
				{matMul(d2ef, c1e), c2e},
			})
		d[t] = assemble([]int{z1, z2, pe}, []int{w1, w2, fi},
			[][]*mat.Dense{
				{d1zw, nil, d1zf},
				{matMul(d2zf, d1ew), d2zw, matMul(d2zf, d1ef)},
				{matMul(d2ef, d1ew), d2ew, matMul(d2ef, d1ef)},
			})
	}
	return New(a, b, c, d, seq, x.hp, x.ts)
}

// mergeSequences concatenates two block collections with uncertainties
// ahead of disturbances, matching the combined channel layout.
func mergeSequences(x, y *delta.Sequence) (*delta.Sequence, error) {
	var blocks []delta.Delta
	blocks = append(blocks, x.Uncertainties()...)
	blocks = append(blocks, y.Uncertainties()...)
	blocks = append(blocks, x.Disturbances()...)
	blocks = append(blocks, y.Disturbances()...)
	return delta.NewSequence(blocks...)
}
