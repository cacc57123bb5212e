package mult

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/iqcert/internal/delta"
)

// impulse simulates the scalar-input basis response to a unit impulse and
// returns per-element outputs for steps 0..n-1.
func impulse(b *Basis, n int) [][]float64 {
	out := make([][]float64, b.Length)
	for i := range out {
		out[i] = make([]float64, n)
	}
	var x *mat.VecDense
	if b.StateDim() > 0 {
		x = mat.NewVecDense(b.StateDim(), nil)
	}
	for t := 0; t < n; t++ {
		u := 0.0
		if t == 0 {
			u = 1
		}
		for i := 0; i < b.Length; i++ {
			y := b.D.At(i, 0) * u
			if x != nil {
				for j := 0; j < b.StateDim(); j++ {
					y += b.C.At(i, j) * x.AtVec(j)
				}
			}
			out[i][t] = y
		}
		if x != nil {
			next := mat.NewVecDense(b.StateDim(), nil)
			next.MulVec(b.A, x)
			for j := 0; j < b.StateDim(); j++ {
				next.SetVec(j, next.AtVec(j)+b.B.At(j, 0)*u)
			}
			x = next
		}
	}
	return out
}

// binomial returns C(n, k) as a float.
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.0
	for i := 0; i < k; i++ {
		r = r * float64(n-i) / float64(i+1)
	}
	return r
}

func TestRealizeLengthPolesSingleRealPole(t *testing.T) {
	const (
		p      = 0.5
		length = 4
		steps  = 12
	)
	b, err := RealizeBasis(LengthPoles{Length: length, Poles: []complex128{complex(p, 0)}}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if b.Length != length {
		t.Fatalf("length = %d, want %d", b.Length, length)
	}
	if b.StateDim() != length-1 {
		t.Fatalf("state dim = %d, want %d", b.StateDim(), length-1)
	}
	if r := spectralRadius(b.A); r >= 1 {
		t.Fatalf("spectral radius = %v, want < 1", r)
	}

	// Element i (1-based) is 1/(z-p)^(i-1): impulse response
	// h(t) = C(t-1, i-2) p^(t-i+1) for t >= i-1.
	resp := impulse(b, steps)
	for i := 1; i <= length; i++ {
		for tt := 0; tt < steps; tt++ {
			var want float64
			if i == 1 {
				if tt == 0 {
					want = 1
				}
			} else if tt >= i-1 {
				want = binomial(tt-1, i-2) * math.Pow(p, float64(tt-i+1))
			}
			if got := resp[i-1][tt]; math.Abs(got-want) > 1e-4 {
				t.Fatalf("element %d step %d = %v, want %v", i, tt, got, want)
			}
		}
	}
}

func TestRealizeLengthPolesPadding(t *testing.T) {
	// Fewer poles than needed repeats the last real pole.
	b, err := RealizeBasis(LengthPoles{Length: 3, Poles: []complex128{0.3}}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if b.A.At(0, 0) != 0.3 || b.A.At(1, 1) != 0.3 {
		t.Fatalf("padded poles = %v, %v, want both 0.3", b.A.At(0, 0), b.A.At(1, 1))
	}

	// No poles at all fills with the default pole at the origin.
	b, err = RealizeBasis(LengthPoles{Length: 2}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if b.A.At(0, 0) != 0 {
		t.Fatalf("default pole = %v, want 0", b.A.At(0, 0))
	}
}

func TestRealizeLengthPolesConjugatePair(t *testing.T) {
	p := complex(0.4, 0.3)
	b, err := RealizeBasis(LengthPoles{Length: 3, Poles: []complex128{p, complex(0.4, -0.3)}}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if r := spectralRadius(b.A); math.Abs(r-0.5) > 1e-9 {
		t.Fatalf("spectral radius = %v, want 0.5", r)
	}
}

func TestRealizeLengthPolesFailures(t *testing.T) {
	cases := []struct {
		name string
		spec LengthPoles
		want error
	}{
		{"zero length", LengthPoles{Length: 0}, delta.ErrConstruction},
		{"too many poles", LengthPoles{Length: 2, Poles: []complex128{0.1, 0.2}}, delta.ErrConstruction},
		{"unstable pole", LengthPoles{Length: 2, Poles: []complex128{1.5}}, delta.ErrStability},
		{"unpaired complex", LengthPoles{Length: 3, Poles: []complex128{complex(0.2, 0.5), 0.1}}, delta.ErrConstruction},
		{"complex pad", LengthPoles{Length: 4, Poles: []complex128{complex(0.2, 0.5), complex(0.2, -0.5)}}, delta.ErrConstruction},
	}
	for _, tc := range cases {
		if _, err := RealizeBasis(tc.spec, true); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestRealizeLengthPolesContinuous(t *testing.T) {
	if _, err := RealizeBasis(LengthPoles{Length: 2, Poles: []complex128{-2}}, false); err != nil {
		t.Fatalf("stable continuous pole rejected: %v", err)
	}
	if _, err := RealizeBasis(LengthPoles{Length: 2, Poles: []complex128{0.5}}, false); !errors.Is(err, delta.ErrStability) {
		t.Fatalf("unstable continuous pole accepted")
	}
}

func TestRealizeFunction(t *testing.T) {
	// Elements 1 and 1/(z-0.3).
	b, err := RealizeBasis(Function{
		Num: [][]float64{{1}, {1}},
		Den: [][]float64{{1}, {1, -0.3}},
	}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if b.Length != 2 || b.StateDim() != 1 {
		t.Fatalf("length %d state %d, want 2 and 1", b.Length, b.StateDim())
	}
	resp := impulse(b, 6)
	for tt := 1; tt < 6; tt++ {
		want := math.Pow(0.3, float64(tt-1))
		if math.Abs(resp[1][tt]-want) > 1e-9 {
			t.Fatalf("step %d = %v, want %v", tt, resp[1][tt], want)
		}
	}

	if _, err := RealizeBasis(Function{
		Num: [][]float64{{1}},
		Den: [][]float64{{1, -1.2}},
	}, true); !errors.Is(err, delta.ErrStability) {
		t.Fatalf("unstable denominator accepted")
	}
	if _, err := RealizeBasis(Function{
		Num: [][]float64{{1, 0, 0}},
		Den: [][]float64{{1, -0.3}},
	}, true); !errors.Is(err, delta.ErrConstruction) {
		t.Fatalf("improper transfer function accepted")
	}
}

func TestRealizeExplicit(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{0.9})
	bb := mat.NewDense(1, 1, []float64{1})
	c := mat.NewDense(2, 1, []float64{0, 1})
	d := mat.NewDense(2, 1, []float64{1, 0})
	b, err := RealizeBasis(Realization{A: a, B: bb, C: c, D: d}, true)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	if b.Length != 2 {
		t.Fatalf("length = %d, want 2", b.Length)
	}

	bad := mat.NewDense(1, 2, []float64{1, 1})
	if _, err := RealizeBasis(Realization{A: a, B: bad, C: c, D: d}, true); !errors.Is(err, delta.ErrConstruction) {
		t.Fatalf("wide input accepted")
	}
	unstable := mat.NewDense(1, 1, []float64{1.1})
	if _, err := RealizeBasis(Realization{A: unstable, B: bb, C: c, D: d}, true); !errors.Is(err, delta.ErrStability) {
		t.Fatalf("unstable realization accepted")
	}
}
