package ulft

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
)

// MatchHorizonPeriod re-expands the system and every attached block onto a
// refined horizon-period. Semantics are unchanged.
func (u *Ulft) MatchHorizonPeriod(target horizon.HorizonPeriod) (*Ulft, error) {
	if u.hp.Equal(target) {
		return u, nil
	}
	a, err := horizon.Expand(u.a, u.hp, target)
	if err != nil {
		return nil, err
	}
	b, err := horizon.Expand(u.b, u.hp, target)
	if err != nil {
		return nil, err
	}
	c, err := horizon.Expand(u.c, u.hp, target)
	if err != nil {
		return nil, err
	}
	d, err := horizon.Expand(u.d, u.hp, target)
	if err != nil {
		return nil, err
	}
	seq, err := u.seq.MatchHorizonPeriod(target)
	if err != nil {
		return nil, err
	}
	return New(a, b, c, d, seq, target, u.ts)
}

// AddDisturbance returns the system with a disturbance block appended. The
// block is re-expanded onto the system's horizon-period first; its width
// must fit the free input alongside the existing disturbance columns.
func (u *Ulft) AddDisturbance(blk delta.Delta) (*Ulft, error) {
	if blk == nil || !blk.Disturbance() {
		return nil, fmt.Errorf("%w: block is not a disturbance", delta.ErrConstruction)
	}
	matched, err := blk.MatchHorizonPeriod(u.hp)
	if err != nil {
		return nil, err
	}
	for t := 0; t < u.hp.Total(); t++ {
		if u.DisturbanceDim(t)+matched.DimOut()[t] > u.FreeInDim(t) {
			return nil, fmt.Errorf("%w: step %d: disturbance columns %d exceed free input width %d",
				horizon.ErrDimension, t, u.DisturbanceDim(t)+matched.DimOut()[t], u.FreeInDim(t))
		}
	}
	seq, err := delta.NewSequence(u.seq.All()...)
	if err != nil {
		return nil, err
	}
	if err := seq.Add(matched); err != nil {
		return nil, err
	}
	return New(u.a, u.b, u.c, u.d, seq, u.hp, u.ts)
}

// RemoveDisturbance returns the system without the named disturbance block.
func (u *Ulft) RemoveDisturbance(name string) (*Ulft, error) {
	blk, err := u.seq.ByName(name)
	if err != nil {
		return nil, err
	}
	if !blk.Disturbance() {
		return nil, fmt.Errorf("%w: %q is not a disturbance", delta.ErrConstruction, name)
	}
	seq, err := delta.NewSequence(u.seq.All()...)
	if err != nil {
		return nil, err
	}
	if err := seq.Remove(name); err != nil {
		return nil, err
	}
	return New(u.a, u.b, u.c, u.d, seq, u.hp, u.ts)
}

// Reachability returns the system whose performance output at every step
// t ≤ finalTime is the state reached from zero initial condition, and zero
// afterwards. The horizon is extended by whole periods until the requested
// time lies inside the transient, so the repeating tail never aliases
// pre-horizon behavior.
func (u *Ulft) Reachability(finalTime int) (*Ulft, error) {
	if !u.ts.Discrete() {
		return nil, fmt.Errorf("%w: reachability needs a discrete timestep", delta.ErrTimeDomain)
	}
	if finalTime < 0 {
		return nil, fmt.Errorf("%w: negative final time %d", delta.ErrConstruction, finalTime)
	}

	h := u.hp.Horizon
	for h < finalTime+1 {
		h += u.hp.Period
	}
	m, err := u.MatchHorizonPeriod(horizon.HorizonPeriod{Horizon: h, Period: u.hp.Period})
	if err != nil {
		return nil, err
	}

	total := m.hp.Total()
	c := make([]*mat.Dense, total)
	d := make([]*mat.Dense, total)
	for t := 0; t < total; t++ {
		cz, _ := m.splitOut(m.c[t], t)
		dz, _ := m.splitOut(m.d[t], t)
		n := m.StateDim(t)
		z := m.UncertaintyInDim(t)
		var state *mat.Dense
		if t <= finalTime {
			state = eye(n)
		}
		c[t] = assemble([]int{z, n}, []int{n}, [][]*mat.Dense{{cz}, {state}})
		d[t] = assemble([]int{z, n}, []int{m.InDim(t)}, [][]*mat.Dense{{dz}, {nil}})
	}
	return New(m.a, m.b, c, d, m.seq, m.hp, m.ts)
}
