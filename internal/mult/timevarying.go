package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// timeVarying is the kernel for time-varying gain blocks: memoryless
// per-step scalings Q(t) ⪰ 0 certifying b(t)²·|z(t)|² − |w(t)|² ≥ 0 with
// no coupling across steps. Dynamic scalings are unsound against
// arbitrary time variation, so a dynamic basis is rejected.
type timeVarying struct {
	name   string
	hp     horizon.HorizonPeriod
	dim    int
	bounds []float64
}

func newTimeVarying(name string, hp horizon.HorizonPeriod, dim int, bounds []float64, opts Options) (*timeVarying, error) {
	if opts.Basis != nil {
		basis, err := RealizeBasis(opts.Basis, opts.Discrete)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if basis.StateDim() > 0 {
			return nil, fmt.Errorf("%s: %w: dynamic basis on a time-varying block",
				name, delta.ErrConstruction)
		}
	}
	return &timeVarying{name: name, hp: hp, dim: dim, bounds: bounds}, nil
}

func (m *timeVarying) Name() string                         { return m.name }
func (m *timeVarying) HorizonPeriod() horizon.HorizonPeriod { return m.hp }
func (m *timeVarying) Disturbance() bool                    { return false }
func (m *timeVarying) ChannelDim(_ int) int                 { return 2 * m.dim }
func (m *timeVarying) OutDim(_ int) int                     { return 2 * m.dim }
func (m *timeVarying) FilterStateDim() int                  { return 0 }

func (m *timeVarying) Filter() (a, b, c, d *mat.Dense) {
	return nil, nil, nil, eye(2 * m.dim)
}

func (m *timeVarying) Register(prog *lmi.Program) ([]*lmi.Expr, error) {
	exprs := make([]*lmi.Expr, m.hp.Total())
	for t := range exprs {
		q := prog.NewVariable(fmt.Sprintf("%s.Q.%d", m.name, t), m.dim)

		psd := lmi.NewExpr(m.dim)
		if err := psd.AddScaledVar(q, 1); err != nil {
			return nil, err
		}
		prog.Require(fmt.Sprintf("%s.Q.%d.psd", m.name, t), psd)

		e := lmi.NewExpr(2 * m.dim)
		b2 := m.bounds[t] * m.bounds[t]
		if err := e.AddSymScaled(embed(2*m.dim, 0, m.dim), q, b2); err != nil {
			return nil, err
		}
		if err := e.AddSymScaled(embed(2*m.dim, m.dim, m.dim), q, -1); err != nil {
			return nil, err
		}
		exprs[t] = e
	}
	return exprs, nil
}
