package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// scalingMode selects the decision-variable structure of a norm-bound
// kernel.
type scalingMode int

const (
	// fullScaling allows an arbitrary coupling across basis copies; valid
	// for repeated-scalar blocks.
	fullScaling scalingMode = iota
	// repeatedScaling forces the scaling to act as a scalar on the block
	// channel; required for full-block operators, which only commute with
	// scalar scalings.
	repeatedScaling
)

// normBound is the kernel for norm-bounded blocks (static gain, dynamic
// LTI operator, unknown delay): filtered D-scalings certifying
// Σ b²·|Ψz|² − |Ψw|² ≥ 0 for every admissible pair w = δ(z).
type normBound struct {
	name   string
	hp     horizon.HorizonPeriod
	dim    int
	bound  float64
	mode   scalingMode
	q11kyp bool

	basis          *Basis
	fa, fb, fc, fd *mat.Dense
	sideOut        int // basis length times channel width
}

func newNormBound(name string, hp horizon.HorizonPeriod, dim int, bound float64,
	mode scalingMode, kypDefault bool, opts Options) (*normBound, error) {

	m := &normBound{name: name, hp: hp, dim: dim, bound: bound, mode: mode, q11kyp: kypDefault}
	if opts.ConstraintQ11KYP != nil {
		m.q11kyp = *opts.ConstraintQ11KYP
	}

	spec := opts.Basis
	if spec == nil {
		spec = LengthPoles{Length: 1}
	}
	if blk, ok := spec.(BlockRealization); ok {
		return m.withBlockRealization(blk, opts.Discrete)
	}
	basis, err := RealizeBasis(spec, opts.Discrete)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	m.basis = basis
	m.sideOut = basis.Length * dim

	// Stacked-channel filter: the basis replicated over each channel of
	// [z; w], block-diagonally over the two sides.
	m.fa = blkdiag(kronEye(basis.A, dim), kronEye(basis.A, dim))
	m.fb = blkdiag(kronEye(basis.B, dim), kronEye(basis.B, dim))
	m.fc = blkdiag(kronEye(basis.C, dim), kronEye(basis.C, dim))
	m.fd = blkdiag(kronEye(basis.D, dim), kronEye(basis.D, dim))
	return m, nil
}

func (m *normBound) withBlockRealization(blk BlockRealization, discrete bool) (*normBound, error) {
	if blk.D == nil {
		return nil, fmt.Errorf("%s: %w: block realization requires D", m.name, delta.ErrConstruction)
	}
	rows, cols := blk.D.Dims()
	if cols != 2*m.dim {
		return nil, fmt.Errorf("%s: %w: block realization input width %d, want %d",
			m.name, horizon.ErrDimension, cols, 2*m.dim)
	}
	if rows%2 != 0 {
		return nil, fmt.Errorf("%s: %w: block realization output width %d is not even",
			m.name, horizon.ErrDimension, rows)
	}
	if blk.A != nil {
		if err := checkStable(blk.A, discrete); err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
	}
	m.fa, m.fb, m.fc, m.fd = blk.A, blk.B, blk.C, blk.D
	m.sideOut = rows / 2
	if m.sideOut%m.dim != 0 {
		return nil, fmt.Errorf("%s: %w: output side width %d not a multiple of channel width %d",
			m.name, horizon.ErrDimension, m.sideOut, m.dim)
	}
	m.basis = &Basis{Length: m.sideOut / m.dim, Discrete: discrete}
	return m, nil
}

func (m *normBound) Name() string                         { return m.name }
func (m *normBound) HorizonPeriod() horizon.HorizonPeriod { return m.hp }
func (m *normBound) Disturbance() bool                    { return false }
func (m *normBound) ChannelDim(_ int) int                 { return 2 * m.dim }
func (m *normBound) OutDim(_ int) int                     { return 2 * m.sideOut }

func (m *normBound) FilterStateDim() int {
	if m.fa == nil {
		return 0
	}
	n, _ := m.fa.Dims()
	return n
}

func (m *normBound) Filter() (a, b, c, d *mat.Dense) {
	return m.fa, m.fb, m.fc, m.fd
}

func (m *normBound) Register(prog *lmi.Program) ([]*lmi.Expr, error) {
	qDim := m.sideOut
	if m.mode == repeatedScaling {
		qDim = m.basis.Length
	}
	q := prog.NewVariable(m.name+".Q", qDim)

	e := lmi.NewExpr(2 * m.sideOut)
	b2 := m.bound * m.bound
	switch m.mode {
	case fullScaling:
		ez := embed(2*m.sideOut, 0, m.sideOut)
		ew := embed(2*m.sideOut, m.sideOut, m.sideOut)
		if err := e.AddSymScaled(ez, q, b2); err != nil {
			return nil, err
		}
		if err := e.AddSymScaled(ew, q, -1); err != nil {
			return nil, err
		}
	case repeatedScaling:
		for c := 0; c < m.dim; c++ {
			sc := basisEmbed(m.basis.Length, m.dim, c)
			var lz, lw mat.Dense
			lz.Mul(embed(2*m.sideOut, 0, m.sideOut), sc)
			lw.Mul(embed(2*m.sideOut, m.sideOut, m.sideOut), sc)
			if err := e.AddSymScaled(&lz, q, b2); err != nil {
				return nil, err
			}
			if err := e.AddSymScaled(&lw, q, -1); err != nil {
				return nil, err
			}
		}
	}

	if err := m.constrainScaling(prog, q); err != nil {
		return nil, err
	}

	exprs := make([]*lmi.Expr, m.hp.Total())
	for t := range exprs {
		exprs[t] = e
	}
	return exprs, nil
}

// constrainScaling enforces positivity of the frequency-dependent scaling:
// directly as Q ⪰ 0, or through a KYP certificate on the one-sided
// filtered form when the basis is dynamic and the flag is set.
func (m *normBound) constrainScaling(prog *lmi.Program, q lmi.Var) error {
	useKYP := m.q11kyp && m.basis != nil && m.basis.StateDim() > 0

	if !useKYP {
		psd := lmi.NewExpr(q.Dim())
		if err := psd.AddScaledVar(q, 1); err != nil {
			return err
		}
		prog.Require(m.name+".Q.psd", psd)
		return nil
	}

	mExpr := lmi.NewExpr(q.Dim())
	if err := mExpr.AddScaledVar(q, 1); err != nil {
		return err
	}
	if m.mode == repeatedScaling {
		// Scalar basis filter; positivity of ψᵀQψ lifts to the replicated
		// channel automatically.
		return registerKYPPositivity(prog, m.name+".Q11",
			m.basis.A, m.basis.B, m.basis.C, m.basis.D, mExpr)
	}
	return registerKYPPositivity(prog, m.name+".Q11",
		kronEye(m.basis.A, m.dim), kronEye(m.basis.B, m.dim),
		kronEye(m.basis.C, m.dim), kronEye(m.basis.D, m.dim), mExpr)
}

// embed returns the tall 0/1 matrix placing a block of the given width at
// row offset lo inside a signal of the given total width.
func embed(total, lo, n int) *mat.Dense {
	out := mat.NewDense(total, n, nil)
	for i := 0; i < n; i++ {
		out.Set(lo+i, i, 1)
	}
	return out
}

// basisEmbed places basis-index space into channel c of a side signal
// ordered basis-major: row i*dim+c, column i.
func basisEmbed(length, dim, c int) *mat.Dense {
	out := mat.NewDense(length*dim, length, nil)
	for i := 0; i < length; i++ {
		out.Set(i*dim+c, i, 1)
	}
	return out
}

// blkdiag stacks two matrices block-diagonally; nil blocks contribute no
// rows or columns.
func blkdiag(a, b *mat.Dense) *mat.Dense {
	if a == nil && b == nil {
		return nil
	}
	ar, ac := 0, 0
	if a != nil {
		ar, ac = a.Dims()
	}
	br, bc := 0, 0
	if b != nil {
		br, bc = b.Dims()
	}
	out := mat.NewDense(ar+br, ac+bc, nil)
	if a != nil {
		out.Slice(0, ar, 0, ac).(*mat.Dense).Copy(a)
	}
	if b != nil {
		out.Slice(ar, ar+br, ac, ac+bc).(*mat.Dense).Copy(b)
	}
	return out
}
