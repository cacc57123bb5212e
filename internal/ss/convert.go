package ss

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/ulft"
)

// FromUlft maps a time-invariant uncertain system to a plain realization
// whose leading io channels are the open uncertainty ports, plus a side
// mapping from a generated placeholder name to each original block. The
// horizon-period must be the trivial single-period case.
func FromUlft(u *ulft.Ulft) (*StateSpace, map[string]delta.Delta, error) {
	if u == nil {
		return nil, nil, fmt.Errorf("%w: nil system", ErrType)
	}
	if !u.HorizonPeriod().Equal(horizon.Trivial()) {
		return nil, nil, fmt.Errorf("%w: %s", ErrHorizon, u.HorizonPeriod())
	}

	side := make(map[string]delta.Delta, u.Deltas().Len())
	for i, blk := range u.Deltas().All() {
		side[fmt.Sprintf("dyn%d.%s", i, blk.Name())] = blk
	}

	s, err := New(cloneDense(u.A(0)), cloneDense(u.B(0)), cloneDense(u.C(0)),
		cloneDense(u.D(0)), float64(u.Timestep()))
	if err != nil {
		return nil, nil, err
	}
	return s, side, nil
}

// ToUlft rebuilds the uncertain system from a realization and a placeholder
// side mapping, re-attaching blocks in placeholder-name order.
func ToUlft(s *StateSpace, side map[string]delta.Delta) (*ulft.Ulft, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil realization", ErrType)
	}
	names := make([]string, 0, len(side))
	for name := range side {
		names = append(names, name)
	}
	sort.Strings(names)
	blocks := make([]delta.Delta, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, side[name])
	}
	seq, err := delta.NewSequence(blocks...)
	if err != nil {
		return nil, err
	}
	return ulft.NewTimeInvariant(cloneDense(s.A), cloneDense(s.B), cloneDense(s.C),
		cloneDense(s.D), seq, ulft.Timestep(s.Dt))
}

// CloseUlft closes a time-invariant system's uncertainty loop against
// concrete block samples, returning the plain system from the free inputs
// to the performance outputs. Disturbance blocks are dropped, since they
// constrain signals rather than close loops.
func CloseUlft(u *ulft.Ulft, samples map[string]*delta.Sample) (*StateSpace, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil system", ErrType)
	}
	if !u.HorizonPeriod().Equal(horizon.Trivial()) {
		return nil, fmt.Errorf("%w: %s", ErrHorizon, u.HorizonPeriod())
	}

	unc := u.Deltas().Uncertainties()
	np := u.StateDim(0)
	wTot := u.UncertaintyOutDim(0)
	zTot := u.UncertaintyInDim(0)
	fi, pe := u.FreeInDim(0), u.PerfOutDim(0)
	if fi == 0 || pe == 0 {
		return nil, fmt.Errorf("%w: no open io channels to close over", ErrType)
	}

	// Stacked sample realization: xd+ = Ad·xd + Bd·z, w = Cd·xd + Dd·z,
	// block-diagonal over the uncertainty collection.
	k := len(unc)
	stateDims := make([]int, k)
	zDims := make([]int, k)
	wDims := make([]int, k)
	aBlk := zeroGrid(k)
	bBlk := zeroGrid(k)
	cBlk := zeroGrid(k)
	dBlk := zeroGrid(k)
	nd := 0
	for i, blk := range unc {
		s, ok := samples[blk.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: no sample for block %q", ErrType, blk.Name())
		}
		if err := blk.CheckSample(s); err != nil {
			return nil, err
		}
		stateDims[i] = s.StateDim(0)
		zDims[i] = blk.DimIn()[0]
		wDims[i] = blk.DimOut()[0]
		nd += stateDims[i]
		if stateDims[i] > 0 {
			aBlk[i][i] = s.A[0]
			bBlk[i][i] = s.B[0]
			cBlk[i][i] = s.C[0]
		}
		dBlk[i][i] = s.Gain(0, wDims[i], zDims[i])
	}
	ad := grid(stateDims, stateDims, aBlk)
	bdz := grid(stateDims, zDims, bBlk)
	cdw := grid(wDims, stateDims, cBlk)
	ddw := grid(wDims, zDims, dBlk)

	// Plant partitions at the single step.
	cz := part(u.C(0), 0, zTot, 0, np)
	ce := part(u.C(0), zTot, pe, 0, np)
	dzw := part(u.D(0), 0, zTot, 0, wTot)
	dzf := part(u.D(0), 0, zTot, wTot, fi)
	dew := part(u.D(0), zTot, pe, 0, wTot)
	def := part(u.D(0), zTot, pe, wTot, fi)
	bw := part(u.B(0), 0, np, 0, wTot)
	bf := part(u.B(0), 0, np, wTot, fi)

	// Algebraic loop: w = Cd·xd + Dd·(Cz·x + Dzw·w + Dzf·d).
	var wx, wxd, wd *mat.Dense
	if wTot > 0 {
		loop := eye(wTot)
		if m := mml(ddw, dzw); m != nil {
			loop.Sub(loop, m)
		}
		var inv mat.Dense
		if err := inv.Inverse(loop); err != nil {
			return nil, fmt.Errorf("%w: algebraic loop", ErrSingular)
		}
		wx = mml(&inv, mml(ddw, cz))
		wxd = mml(&inv, cdw)
		wd = mml(&inv, mml(ddw, dzf))
	}

	// z in terms of (x, xd, d), then the closed matrices.
	zx := madd(cz, mml(dzw, wx))
	zxd := mml(dzw, wxd)
	zd := madd(dzf, mml(dzw, wd))

	a := grid([]int{np, nd}, []int{np, nd}, [][]*mat.Dense{
		{madd(u.A(0), mml(bw, wx)), mml(bw, wxd)},
		{mml(bdz, zx), madd(ad, mml(bdz, zxd))},
	})
	b := grid([]int{np, nd}, []int{fi}, [][]*mat.Dense{
		{madd(bf, mml(bw, wd))},
		{mml(bdz, zd)},
	})
	c := grid([]int{pe}, []int{np, nd}, [][]*mat.Dense{
		{madd(ce, mml(dew, wx)), mml(dew, wxd)},
	})
	d := grid([]int{pe}, []int{fi}, [][]*mat.Dense{
		{madd(def, mml(dew, wd))},
	})
	return New(a, b, c, d, float64(u.Timestep()))
}
