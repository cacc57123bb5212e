package ulft

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
)

// Timestep is the sample interval of a discrete-time system; the zero value
// marks continuous time.
type Timestep float64

const Continuous Timestep = 0

func (ts Timestep) Discrete() bool { return ts > 0 }

// Ulft is an uncertain system in linear fractional form: a periodic
// state-space realization closed against an ordered collection of
// uncertainty and disturbance blocks.
//
/// Channel layout at each step: inputs are [w; d] with w the uncertainty
// outputs in block declaration order and d the free inputs; outputs are
// [z; e] with z the uncertainty inputs in the same order and e the
// performance outputs. Disturbance blocks constrain the leading columns of
// the free block, again in declaration order.
//
// A Ulft is immutable after construction; every operation returns a new
// instance.
type Ulft struct {
	a, b, c, d []*mat.Dense
	seq        *delta.Sequence
	hp         horizon.HorizonPeriod
	ts         Timestep
}

// New builds an uncertain system from per-step matrices. Slices a, b, c may
// be nil for a static system; nil entries stand for zero blocks of the
// implied size. d is required at every step and fixes the input and output
// widths.
func New(a, b, c, d []*mat.Dense, seq *delta.Sequence, hp horizon.HorizonPeriod, ts Timestep) (*Ulft, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if ts < 0 {
		return nil, fmt.Errorf("%w: negative timestep %g", delta.ErrConstruction, float64(ts))
	}
	total := hp.Total()
	if len(d) != total {
		return nil, fmt.Errorf("%w: %d d matrices, want %d", horizon.ErrDimension, len(d), total)
	}
	a = padSteps(a, total)
	b = padSteps(b, total)
	c = padSteps(c, total)
	if a == nil || b == nil || c == nil {
		return nil, fmt.Errorf("%w: per-step matrix count does not match %s", horizon.ErrDimension, hp)
	}
	if seq == nil {
		seq = &delta.Sequence{}
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	for _, blk := range seq.All() {
		if !blk.HorizonPeriod().Equal(hp) {
			return nil, fmt.Errorf("%w: block %q has horizon-period %s, system has %s",
				horizon.ErrDimension, blk.Name(), blk.HorizonPeriod(), hp)
		}
	}

	u := &Ulft{
		a:   cloneSteps(a),
		b:   cloneSteps(b),
		c:   cloneSteps(c),
		d:   cloneSteps(d),
		seq: seq,
		hp:  hp,
		ts:  ts,
	}
	if err := u.validateDims(); err != nil {
		return nil, err
	}
	return u, nil
}

// NewTimeInvariant builds a time-invariant system over the trivial
// horizon-period.
func NewTimeInvariant(a, b, c, d *mat.Dense, seq *delta.Sequence, ts Timestep) (*Ulft, error) {
	return New([]*mat.Dense{a}, []*mat.Dense{b}, []*mat.Dense{c}, []*mat.Dense{d},
		seq, horizon.Trivial(), ts)
}

func (u *Ulft) validateDims() error {
	total := u.hp.Total()

	// State widths first, so next-step heights can be cross-checked.
	sd := make([]int, total)
	for t := 0; t < total; t++ {
		fromA, fromC := 0, 0
		if u.a[t] != nil {
			_, fromA = u.a[t].Dims()
		}
		if u.c[t] != nil {
			_, fromC = u.c[t].Dims()
		}
		if fromA > 0 && fromC > 0 && fromA != fromC {
			return fmt.Errorf("%w: step %d: a has %d state columns, c has %d",
				horizon.ErrDimension, t, fromA, fromC)
		}
		sd[t] = fromA
		if fromC > sd[t] {
			sd[t] = fromC
		}
	}

	for t := 0; t < total; t++ {
		if u.d[t] == nil {
			return fmt.Errorf("%w: step %d: d matrix is required", delta.ErrConstruction, t)
		}
		out, in := u.d[t].Dims()
		next := sd[u.hp.Next(t)]
		if u.a[t] != nil {
			r, _ := u.a[t].Dims()
			if r != next {
				return fmt.Errorf("%w: step %d: a has %d rows, next state width is %d",
					horizon.ErrDimension, t, r, next)
			}
		}
		if u.b[t] != nil {
			r, cc := u.b[t].Dims()
			if r != next || cc != in {
				return fmt.Errorf("%w: step %d: b is %dx%d, want %dx%d",
					horizon.ErrDimension, t, r, cc, next, in)
			}
		}
		if u.c[t] != nil {
			r, cc := u.c[t].Dims()
			if r != out || cc != sd[t] {
				return fmt.Errorf("%w: step %d: c is %dx%d, want %dx%d",
					horizon.ErrDimension, t, r, cc, out, sd[t])
			}
		}

		if w, z := u.UncertaintyOutDim(t), u.UncertaintyInDim(t); in < w+u.DisturbanceDim(t) || out < z {
			return fmt.Errorf("%w: step %d: %dx%d io cannot host %d uncertainty inputs, %d outputs and %d disturbance columns",
				horizon.ErrDimension, t, out, in, z, w, u.DisturbanceDim(t))
		}
	}
	return nil
}

func (u *Ulft) HorizonPeriod() horizon.HorizonPeriod { return u.hp }
func (u *Ulft) Timestep() Timestep                   { return u.ts }

// Deltas returns the attached block collection. Callers must not mutate it.
func (u *Ulft) Deltas() *delta.Sequence { return u.seq }

// A returns the state matrix at array index t; nil means no states.
// Returned matrices must not be modified.
func (u *Ulft) A(t int) *mat.Dense { return u.a[t] }
func (u *Ulft) B(t int) *mat.Dense { return u.b[t] }
func (u *Ulft) C(t int) *mat.Dense { return u.c[t] }
func (u *Ulft) D(t int) *mat.Dense { return u.d[t] }

// StateDim is the state width entering array index t.
func (u *Ulft) StateDim(t int) int {
	if u.a[t] != nil {
		_, n := u.a[t].Dims()
		return n
	}
	if u.c[t] != nil {
		_, n := u.c[t].Dims()
		return n
	}
	return 0
}

func (u *Ulft) InDim(t int) int {
	_, in := u.d[t].Dims()
	return in
}

func (u *Ulft) OutDim(t int) int {
	out, _ := u.d[t].Dims()
	return out
}

// UncertaintyInDim is the total width of the z channels feeding the
// uncertainty blocks at array index t.
func (u *Ulft) UncertaintyInDim(t int) int {
	n := 0
	for _, blk := range u.seq.Uncertainties() {
		n += blk.DimIn()[t]
	}
	return n
}

// UncertaintyOutDim is the total width of the w channels returned by the
// uncertainty blocks at array index t.
func (u *Ulft) UncertaintyOutDim(t int) int {
	n := 0
	for _, blk := range u.seq.Uncertainties() {
		n += blk.DimOut()[t]
	}
	return n
}

// DisturbanceDim is the total width of the constrained leading free-input
// columns at array index t.
func (u *Ulft) DisturbanceDim(t int) int {
	n := 0
	for _, blk := range u.seq.Disturbances() {
		n += blk.DimOut()[t]
	}
	return n
}

// FreeInDim is the free input width d at array index t.
func (u *Ulft) FreeInDim(t int) int { return u.InDim(t) - u.UncertaintyOutDim(t) }

// PerfOutDim is the performance output width e at array index t.
func (u *Ulft) PerfOutDim(t int) int { return u.OutDim(t) - u.UncertaintyInDim(t) }

func (u *Ulft) String() string {
	return fmt.Sprintf("ulft{%s, %d blocks, %dx%d at 0}",
		u.hp, u.seq.Len(), u.OutDim(0), u.InDim(0))
}
