package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// sector is the kernel for sector-bounded nonlinearities: per-step scalar
// weights λ(t) ≥ 0 on the sector form 2·(w − α·z)ᵀ(β·z − w) ≥ 0.
type sector struct {
	name string
	hp   horizon.HorizonPeriod
	dim  int
	low  []float64
	high []float64
}

func newSector(b *delta.SectorBounded, opts Options) (*sector, error) {
	if opts.Basis != nil {
		basis, err := RealizeBasis(opts.Basis, opts.Discrete)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		if basis.StateDim() > 0 {
			return nil, fmt.Errorf("%s: %w: dynamic basis on a memoryless nonlinearity",
				b.Name(), delta.ErrConstruction)
		}
	}
	return &sector{name: b.Name(), hp: b.HorizonPeriod(), dim: b.Dim(), low: b.Low(), high: b.High()}, nil
}

func (m *sector) Name() string                         { return m.name }
func (m *sector) HorizonPeriod() horizon.HorizonPeriod { return m.hp }
func (m *sector) Disturbance() bool                    { return false }
func (m *sector) ChannelDim(_ int) int                 { return 2 * m.dim }
func (m *sector) OutDim(_ int) int                     { return 2 * m.dim }
func (m *sector) FilterStateDim() int                  { return 0 }

func (m *sector) Filter() (a, b, c, d *mat.Dense) {
	return nil, nil, nil, eye(2 * m.dim)
}

func (m *sector) Register(prog *lmi.Program) ([]*lmi.Expr, error) {
	exprs := make([]*lmi.Expr, m.hp.Total())
	for t := range exprs {
		lam := prog.NewVariable(fmt.Sprintf("%s.lambda.%d", m.name, t), 1)

		pos := lmi.NewExpr(1)
		if err := pos.AddScaledVar(lam, 1); err != nil {
			return nil, err
		}
		prog.Require(fmt.Sprintf("%s.lambda.%d.pos", m.name, t), pos)

		// Channel order [z; w]: expanding 2(w - αz)ᵀ(βz - w) gives the
		// coefficient matrix [-2αβ, α+β; α+β, -2] on each channel pair.
		alpha, beta := m.low[t], m.high[t]
		k := mat.NewDense(2*m.dim, 2*m.dim, nil)
		for c := 0; c < m.dim; c++ {
			k.Set(c, c, -2*alpha*beta)
			k.Set(c, m.dim+c, alpha+beta)
			k.Set(m.dim+c, c, alpha+beta)
			k.Set(m.dim+c, m.dim+c, -2)
		}

		e := lmi.NewExpr(2 * m.dim)
		if err := e.AddScaledConst(lam, k); err != nil {
			return nil, err
		}
		exprs[t] = e
	}
	return exprs, nil
}
