package mult

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
	"github.com/san-kum/iqcert/internal/horizon"
	"github.com/san-kum/iqcert/internal/lmi"
)

// Multiplier is the IQC kernel attached to one uncertainty or disturbance
// block: a stable filter applied to the block's channel plus matrix
// decision variables forming the per-step middle matrix of the quadratic
// constraint. A multiplier is built once from its block and consumed once
// by the analysis engine.
type Multiplier interface {
	Name() string
	HorizonPeriod() horizon.HorizonPeriod

	// Disturbance reports whether the kernel constrains a free input
	// signal; its quadratic form then enters the global inequality with
	// the opposite sign.
	Disturbance() bool

	// ChannelDim is the filter input width at array index t: block output
	// plus block input widths for uncertainties, the signal width for
	// disturbances.
	ChannelDim(t int) int

	// OutDim is the filter output width at array index t.
	OutDim(t int) int

	FilterStateDim() int

	// Filter returns the shared time-invariant filter realization; a nil A
	// means a memoryless filter acting through D alone.
	Filter() (a, b, c, d *mat.Dense)

	// Register declares the multiplier's decision variables and internal
	// constraints in prog and returns the per-step middle matrices in
	// filter-output coordinates, one expression per backing array index.
	Register(prog *lmi.Program) ([]*lmi.Expr, error)
}

// Options configures multiplier construction for one block.
type Options struct {
	// Basis selects the rational basis; nil means a memoryless length-1
	// basis.
	Basis BasisSpec

	// Discrete declares the time-domain the filter must be stable in.
	Discrete bool

	// ConstraintQ11KYP overrides the variant default for whether the Q11
	// block is constrained through a KYP inequality on the filtered form
	// rather than direct semidefiniteness.
	ConstraintQ11KYP *bool
}

// ForDelta builds the IQC multiplier matching a block. Variants with no
// multiplier mapping fail eagerly, before any solver is involved.
func ForDelta(d delta.Delta, opts Options) (Multiplier, error) {
	switch b := d.(type) {
	case *delta.Slti:
		return newNormBound(b.Name(), b.HorizonPeriod(), b.Dim(), b.Bound(), fullScaling, false, opts)
	case *delta.Dlti:
		return newNormBound(b.Name(), b.HorizonPeriod(), b.Dim(), b.Bound(), repeatedScaling, false, opts)
	case *delta.DelaySlti:
		// A delay of any admissible length has unit induced gain; the
		// kernel is the unit-norm-bound one with the KYP constraint on by
		// default.
		return newNormBound(b.Name(), b.HorizonPeriod(), b.Dim(), 1.0, repeatedScaling, true, opts)
	case *delta.Sltv:
		return newTimeVarying(b.Name(), b.HorizonPeriod(), b.Dim(), b.Bounds(), opts)
	case *delta.SltvRateBound:
		// The rate-bounded admissible set is contained in the arbitrarily
		// time-varying one, so the per-step scaling kernel stays valid.
		return newTimeVarying(b.Name(), b.HorizonPeriod(), b.Dim(), b.Bounds(), opts)
	case *delta.SectorBounded:
		return newSector(b, opts)
	case *delta.DelayZ:
		return newDelayZ(b, opts)
	case *delta.ConstantWindow:
		return newConstantWindow(b, opts)
	default:
		return nil, fmt.Errorf("%w: no multiplier mapping for %T (%s)", delta.ErrUnsupported, d, d.Name())
	}
}

// kronEye returns m ⊗ I(dim).
func kronEye(m *mat.Dense, dim int) *mat.Dense {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := mat.NewDense(r*dim, c*dim, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			for k := 0; k < dim; k++ {
				out.Set(i*dim+k, j*dim+k, v)
			}
		}
	}
	return out
}

// eye returns the identity of the given size.
func eye(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// selector returns the 0/1 matrix picking rows [lo, lo+n) out of a signal
// of the given total width.
func selector(total, lo, n int) *mat.Dense {
	out := mat.NewDense(n, total, nil)
	for i := 0; i < n; i++ {
		out.Set(i, lo+i, 1)
	}
	return out
}

// registerKYPPositivity adds the discrete-time KYP certificate that the
// filtered quadratic form Ψᵀ·M·Ψ is nonnegative on all finite horizons:
// a storage variable P ⪰ 0 with
//
//	[A B]ᵀ P [A B] − [I 0]ᵀ P [I 0] + [C D]ᵀ M [C D] ⪰ 0.
//
// The filter (a,b,c,d) must be time-invariant with input width m.
func registerKYPPositivity(prog *lmi.Program, name string, a, b, c, d *mat.Dense, m *lmi.Expr) error {
	n := 0
	if a != nil {
		n, _ = a.Dims()
	}
	in := 0
	if d != nil {
		_, in = d.Dims()
	} else if b != nil {
		_, in = b.Dims()
	}

	p := prog.NewVariable(name+".P", n)
	psd := lmi.NewExpr(n)
	if err := psd.AddScaledVar(p, 1); err != nil {
		return err
	}
	prog.Require(name+".P.psd", psd)

	dim := n + in
	cons := lmi.NewExpr(dim)

	ab := mat.NewDense(n, dim, nil)
	if a != nil {
		ab.Slice(0, n, 0, n).(*mat.Dense).Copy(a)
	}
	if b != nil {
		ab.Slice(0, n, n, dim).(*mat.Dense).Copy(b)
	}
	if err := cons.AddSym(transpose(ab), p); err != nil {
		return err
	}
	i0 := selector(dim, 0, n)
	if err := cons.AddSymScaled(transpose(i0), p, -1); err != nil {
		return err
	}

	cd := mat.NewDense(m.Dim(), dim, nil)
	if c != nil {
		cd.Slice(0, m.Dim(), 0, n).(*mat.Dense).Copy(c)
	}
	if d != nil {
		cd.Slice(0, m.Dim(), n, dim).(*mat.Dense).Copy(d)
	}
	filtered, err := lmi.Congruence(m, cd)
	if err != nil {
		return err
	}
	if err := cons.Accumulate(filtered); err != nil {
		return err
	}
	prog.Require(name+".kyp", cons)
	return nil
}

func transpose(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(m.T())
	return &out
}
