package mult

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
)

// BasisSpec selects how a multiplier's rational basis is specified. Exactly
// one variant is held at a time; assigning a different variant replaces the
// previous one, so no clearing logic exists.
type BasisSpec interface {
	basisSpec()
}

// LengthPoles requests a generated minimal stable basis of the given
// length. The supplied stable poles are repeated or padded as needed;
// complex poles must appear as adjacent conjugate pairs.
type LengthPoles struct {
	Length int
	Poles  []complex128
}

// Function supplies the basis elements as explicit scalar transfer
// functions, one (numerator, denominator) coefficient pair per element,
// highest power first.
type Function struct {
	Num [][]float64
	Den [][]float64
}

// Realization supplies an explicit scalar-input state-space realization
// whose outputs are the basis elements.
type Realization struct {
	A, B, C, D *mat.Dense
}

// BlockRealization supplies the full filter applied to the multiplier's
// stacked channel, bypassing per-channel basis replication.
type BlockRealization struct {
	A, B, C, D *mat.Dense
}

func (LengthPoles) basisSpec()      {}
func (Function) basisSpec()         {}
func (Realization) basisSpec()      {}
func (BlockRealization) basisSpec() {}

// Basis is a realized scalar-input stable filter whose Length outputs are
// the basis elements, ψ₁ = 1 first.
type Basis struct {
	Length     int
	A, B, C, D *mat.Dense
	Discrete   bool
}

func (b *Basis) StateDim() int {
	if b.A == nil {
		return 0
	}
	n, _ := b.A.Dims()
	return n
}

// RealizeBasis builds and validates a basis from its specification.
// BlockRealization is handled by the caller (it replaces per-channel
// replication entirely) and is rejected here.
func RealizeBasis(spec BasisSpec, discrete bool) (*Basis, error) {
	switch s := spec.(type) {
	case LengthPoles:
		return realizeLengthPoles(s, discrete)
	case Function:
		return realizeFunction(s, discrete)
	case Realization:
		return realizeExplicit(s, discrete)
	default:
		return nil, fmt.Errorf("%w: basis specification %T", delta.ErrUnsupported, spec)
	}
}

func realizeLengthPoles(s LengthPoles, discrete bool) (*Basis, error) {
	if s.Length < 1 {
		return nil, fmt.Errorf("%w: basis length %d < 1", delta.ErrConstruction, s.Length)
	}
	need := s.Length - 1
	if len(s.Poles) > need {
		return nil, fmt.Errorf("%w: %d poles for basis length %d (at most %d)",
			delta.ErrConstruction, len(s.Poles), s.Length, need)
	}
	poles := make([]complex128, 0, need)
	poles = append(poles, s.Poles...)
	for len(poles) < need {
		if len(poles) == 0 {
			poles = append(poles, defaultPole(discrete))
		} else {
			last := poles[len(poles)-1]
			if imag(last) != 0 {
				return nil, fmt.Errorf("%w: cannot pad complex pole %v without its conjugate",
					delta.ErrConstruction, last)
			}
			poles = append(poles, last)
		}
	}
	if err := checkPoles(poles, discrete); err != nil {
		return nil, err
	}

	if need == 0 {
		return &Basis{Length: 1, D: mat.NewDense(1, 1, []float64{1}), Discrete: discrete}, nil
	}

	// Cascade realization: stage i feeds stage i+1; element i+1 taps the
	// output of stage i, element 1 is the direct feedthrough.
	n := need
	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, 1, nil)
	c := mat.NewDense(s.Length, n, nil)
	d := mat.NewDense(s.Length, 1, nil)
	d.Set(0, 0, 1)

	for i := 0; i < need; i++ {
		p := poles[i]
		if imag(p) == 0 {
			a.Set(i, i, real(p))
		} else {
			// Conjugate pair occupies stages i and i+1 as one real
			// second-order section.
			if i+1 >= need || poles[i+1] != cmplx.Conj(p) {
				return nil, fmt.Errorf("%w: complex pole %v not followed by its conjugate",
					delta.ErrConstruction, p)
			}
			a.Set(i, i, real(p))
			a.Set(i, i+1, imag(p))
			a.Set(i+1, i, -imag(p))
			a.Set(i+1, i+1, real(p))
			i++
			continue
		}
	}
	// Stage chaining and input injection. Within a conjugate-pair section
	// the sub-diagonal already carries the rotation coupling.
	b.Set(0, 0, 1)
	for i := 1; i < need; i++ {
		if a.At(i, i-1) == 0 {
			a.Set(i, i-1, 1)
		}
	}
	for i := 0; i < need; i++ {
		c.Set(i+1, i, 1)
	}
	return &Basis{Length: s.Length, A: a, B: b, C: c, D: d, Discrete: discrete}, nil
}

func realizeFunction(s Function, discrete bool) (*Basis, error) {
	if len(s.Num) == 0 || len(s.Num) != len(s.Den) {
		return nil, fmt.Errorf("%w: %d numerators and %d denominators",
			delta.ErrConstruction, len(s.Num), len(s.Den))
	}
	length := len(s.Num)

	var blocks []*Basis
	for i := range s.Num {
		elem, err := realizeTransfer(s.Num[i], s.Den[i])
		if err != nil {
			return nil, fmt.Errorf("basis element %d: %w", i, err)
		}
		blocks = append(blocks, elem)
	}

	n := 0
	for _, blk := range blocks {
		n += blk.StateDim()
	}
	d := mat.NewDense(length, 1, nil)
	for i, blk := range blocks {
		d.Set(i, 0, blk.D.At(0, 0))
	}
	if n == 0 {
		return &Basis{Length: length, D: d, Discrete: discrete}, nil
	}

	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, 1, nil)
	c := mat.NewDense(length, n, nil)
	off := 0
	for i, blk := range blocks {
		bn := blk.StateDim()
		for r := 0; r < bn; r++ {
			for cc := 0; cc < bn; cc++ {
				a.Set(off+r, off+cc, blk.A.At(r, cc))
			}
			b.Set(off+r, 0, blk.B.At(r, 0))
			c.Set(i, off+r, blk.C.At(0, r))
		}
		off += bn
	}
	if err := checkStable(a, discrete); err != nil {
		return nil, err
	}
	return &Basis{Length: length, A: a, B: b, C: c, D: d, Discrete: discrete}, nil
}

// realizeTransfer builds the controllable canonical form of a proper
// scalar transfer function num/den, highest power first.
func realizeTransfer(num, den []float64) (*Basis, error) {
	den = trimLeadingZeros(den)
	num = trimLeadingZeros(num)
	if len(den) == 0 || den[0] == 0 {
		return nil, fmt.Errorf("%w: zero denominator", delta.ErrConstruction)
	}
	if len(num) > len(den) {
		return nil, fmt.Errorf("%w: improper transfer function", delta.ErrConstruction)
	}
	// Normalize monic.
	lead := den[0]
	a0 := make([]float64, len(den))
	for i := range den {
		a0[i] = den[i] / lead
	}
	b0 := make([]float64, len(num))
	for i := range num {
		b0[i] = num[i] / lead
	}

	n := len(a0) - 1
	if n == 0 {
		return &Basis{Length: 1, D: mat.NewDense(1, 1, []float64{b0value(b0)}), Discrete: true}, nil
	}

	// Pad numerator to denominator length and split off the feedthrough.
	bp := make([]float64, n+1)
	copy(bp[n+1-len(b0):], b0)
	dterm := bp[0]
	cRow := make([]float64, n)
	for i := 0; i < n; i++ {
		cRow[i] = bp[i+1] - dterm*a0[i+1]
	}

	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		a.Set(0, j, -a0[j+1])
	}
	for i := 1; i < n; i++ {
		a.Set(i, i-1, 1)
	}
	b := mat.NewDense(n, 1, nil)
	b.Set(0, 0, 1)
	c := mat.NewDense(1, n, cRow)
	d := mat.NewDense(1, 1, []float64{dterm})
	return &Basis{Length: 1, A: a, B: b, C: c, D: d}, nil
}

func b0value(b0 []float64) float64 {
	if len(b0) == 0 {
		return 0
	}
	return b0[0]
}

func trimLeadingZeros(xs []float64) []float64 {
	for len(xs) > 1 && xs[0] == 0 {
		xs = xs[1:]
	}
	return xs
}

func realizeExplicit(s Realization, discrete bool) (*Basis, error) {
	if s.C == nil || s.D == nil {
		return nil, fmt.Errorf("%w: explicit basis realization requires C and D", delta.ErrConstruction)
	}
	rows, _ := s.D.Dims()
	if s.B != nil {
		_, bc := s.B.Dims()
		if bc != 1 {
			return nil, fmt.Errorf("%w: basis realization must have a scalar input, got width %d",
				delta.ErrConstruction, bc)
		}
	}
	if s.A != nil {
		if err := checkStable(s.A, discrete); err != nil {
			return nil, err
		}
	}
	return &Basis{Length: rows, A: s.A, B: s.B, C: s.C, D: s.D, Discrete: discrete}, nil
}

func defaultPole(discrete bool) complex128 {
	if discrete {
		return 0
	}
	return -1
}

func checkPoles(poles []complex128, discrete bool) error {
	for _, p := range poles {
		if !poleStable(p, discrete) {
			return fmt.Errorf("%w: pole %v outside the stability region", delta.ErrStability, p)
		}
	}
	// Complex poles must pair up.
	counts := map[complex128]int{}
	for _, p := range poles {
		if imag(p) != 0 {
			counts[p]++
		}
	}
	for p, n := range counts {
		if counts[cmplx.Conj(p)] != n {
			return fmt.Errorf("%w: complex pole %v lacks a conjugate partner", delta.ErrConstruction, p)
		}
	}
	return nil
}

func poleStable(p complex128, discrete bool) bool {
	if discrete {
		return cmplx.Abs(p) < 1
	}
	return real(p) < 0
}

func checkStable(a *mat.Dense, discrete bool) error {
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return fmt.Errorf("%w: eigendecomposition failed", delta.ErrStability)
	}
	for _, v := range eig.Values(nil) {
		if !poleStable(v, discrete) {
			return fmt.Errorf("%w: realization pole %v outside the stability region", delta.ErrStability, v)
		}
	}
	return nil
}

// spectralRadius is used by tests to confirm generated bases are stable.
func spectralRadius(a *mat.Dense) float64 {
	if a == nil {
		return 0
	}
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return math.Inf(1)
	}
	r := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > r {
			r = m
		}
	}
	return r
}
