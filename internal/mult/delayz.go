package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// delayZ is the kernel for the exact one-step delay operator: per-step
// storage matrices P(t) ⪰ 0 with the telescoping form
// z(t)ᵀP(t+1)z(t) − w(t)ᵀP(t)w(t), whose running sum equals the
// nonnegative stored energy of the shift register.
type delayZ struct {
	name string
	hp   horizon.HorizonPeriod
	dims []int
}

func newDelayZ(b *delta.DelayZ, opts Options) (*delayZ, error) {
	if opts.Basis != nil {
		if _, ok := opts.Basis.(LengthPoles); !ok {
			return nil, fmt.Errorf("%s: %w: explicit basis on the state operator",
				b.Name(), delta.ErrConstruction)
		}
	}
	return &delayZ{name: b.Name(), hp: b.HorizonPeriod(), dims: b.Dims()}, nil
}

func (m *delayZ) Name() string                         { return m.name }
func (m *delayZ) HorizonPeriod() horizon.HorizonPeriod { return m.hp }
func (m *delayZ) Disturbance() bool                    { return false }

// Channel order is [z; w]: the signal entering the delay, then the signal
// leaving it. The entering width at step t is the state width at t+1.
func (m *delayZ) ChannelDim(t int) int {
	return m.dims[m.hp.Next(t)] + m.dims[t]
}

func (m *delayZ) OutDim(t int) int    { return m.ChannelDim(t) }
func (m *delayZ) FilterStateDim() int { return 0 }

func (m *delayZ) Filter() (a, b, c, d *mat.Dense) {
	// Memoryless identity; widths vary per step, so the engine builds the
	// per-step identity itself when d is nil here.
	return nil, nil, nil, nil
}

func (m *delayZ) Register(prog *lmi.Program) ([]*lmi.Expr, error) {
	total := m.hp.Total()
	ps := make([]lmi.Var, total)
	for t := 0; t < total; t++ {
		ps[t] = prog.NewVariable(fmt.Sprintf("%s.P.%d", m.name, t), m.dims[t])
		psd := lmi.NewExpr(m.dims[t])
		if err := psd.AddScaledVar(ps[t], 1); err != nil {
			return nil, err
		}
		prog.Require(fmt.Sprintf("%s.P.%d.psd", m.name, t), psd)
	}

	exprs := make([]*lmi.Expr, total)
	for t := 0; t < total; t++ {
		next := m.hp.Next(t)
		zw := m.ChannelDim(t)
		e := lmi.NewExpr(zw)
		if err := e.AddSymScaled(embed(zw, 0, m.dims[next]), ps[next], 1); err != nil {
			return nil, err
		}
		if err := e.AddSymScaled(embed(zw, m.dims[next], m.dims[t]), ps[t], -1); err != nil {
			return nil, err
		}
		exprs[t] = e
	}
	return exprs, nil
}
