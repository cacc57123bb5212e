package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// constantWindow is the disturbance kernel for signals frozen over a step
// window. The filter is the first difference r(t) = d(t) − d(t−1); at
// every frozen step the difference vanishes for admissible signals, so the
// middle matrix there is a free symmetric variable, and it is zero at all
// other steps.
type constantWindow struct {
	name   string
	hp     horizon.HorizonPeriod
	dim    int
	frozen []bool
}

func newConstantWindow(b *delta.ConstantWindow, opts Options) (*constantWindow, error) {
	if opts.Basis != nil {
		if _, ok := opts.Basis.(LengthPoles); !ok {
			return nil, fmt.Errorf("%s: %w: explicit basis on a window disturbance",
				b.Name(), delta.ErrConstruction)
		}
	}
	total := b.HorizonPeriod().Total()
	frozen := make([]bool, total)
	for t := 0; t < total; t++ {
		frozen[t] = b.Frozen(t)
	}
	return &constantWindow{name: b.Name(), hp: b.HorizonPeriod(), dim: b.Dim(), frozen: frozen}, nil
}

func (m *constantWindow) Name() string                         { return m.name }
func (m *constantWindow) HorizonPeriod() horizon.HorizonPeriod { return m.hp }
func (m *constantWindow) Disturbance() bool                    { return true }
func (m *constantWindow) ChannelDim(_ int) int                 { return m.dim }
func (m *constantWindow) OutDim(_ int) int                     { return m.dim }
func (m *constantWindow) FilterStateDim() int                  { return m.dim }

// Filter realizes the first difference: x(t+1) = d(t), r(t) = d(t) − x(t).
func (m *constantWindow) Filter() (a, b, c, d *mat.Dense) {
	a = mat.NewDense(m.dim, m.dim, nil)
	b = eye(m.dim)
	c = mat.NewDense(m.dim, m.dim, nil)
	c.Scale(-1, eye(m.dim))
	d = eye(m.dim)
	return a, b, c, d
}

func (m *constantWindow) Register(prog *lmi.Program) ([]*lmi.Expr, error) {
	exprs := make([]*lmi.Expr, m.hp.Total())
	for t := range exprs {
		e := lmi.NewExpr(m.dim)
		if m.frozen[t] {
			w := prog.NewVariable(fmt.Sprintf("%s.W.%d", m.name, t), m.dim)
			if err := e.AddScaledVar(w, 1); err != nil {
				return nil, err
			}
		}
		exprs[t] = e
	}
	return exprs, nil
}
