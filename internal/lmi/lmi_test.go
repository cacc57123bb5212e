package lmi

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCompileScalarVariable(t *testing.T) {
	p := NewProgram()
	x := p.NewVariable("x", 1)

	// Constraint: x - 2 >= 0, written as 1x1 matrices.
	e := NewExpr(1)
	if err := e.AddScaledVar(x, 1); err != nil {
		t.Fatalf("AddScaledVar failed: %v", err)
	}
	if err := e.AddConst(mat.NewDense(1, 1, []float64{-2})); err != nil {
		t.Fatalf("AddConst failed: %v", err)
	}
	p.Require("lb", e)

	c := p.Compile()
	if c.NumScalars != 1 {
		t.Fatalf("scalar count %d, want 1", c.NumScalars)
	}

	got := c.Constraints[0].Eval([]float64{5})
	if math.Abs(got.At(0, 0)-3) > 1e-12 {
		t.Errorf("Eval = %g, want 3", got.At(0, 0))
	}
}

func TestCompileSymTerm(t *testing.T) {
	p := NewProgram()
	q := p.NewVariable("Q", 2)

	l := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	e := NewExpr(2)
	if err := e.AddSym(l, q); err != nil {
		t.Fatalf("AddSym failed: %v", err)
	}
	p.Require("pos", e)

	c := p.Compile()
	if c.NumScalars != 3 {
		t.Fatalf("scalar count %d, want 3", c.NumScalars)
	}

	// Q = [1 2; 2 5] packed row-major upper-triangular.
	x := []float64{1, 2, 5}
	got := c.Constraints[0].Eval(x)

	// L Q Lᵀ with L = diag(1,2) is [1 4; 4 20].
	want := [][]float64{{1, 4}, {4, 20}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(got.At(i, j)-want[i][j]) > 1e-12 {
				t.Errorf("Eval[%d,%d] = %g, want %g", i, j, got.At(i, j), want[i][j])
			}
		}
	}
}

func TestSolutionRoundTrip(t *testing.T) {
	p := NewProgram()
	a := p.NewVariable("A", 2)
	b := p.NewVariable("B", 1)

	c := p.Compile()
	x := []float64{1, 2, 3, 7}
	sol := NewSolution(c, x, true, 0.1, 5)

	ma := sol.Matrix(a)
	if ma.At(0, 0) != 1 || ma.At(0, 1) != 2 || ma.At(1, 0) != 2 || ma.At(1, 1) != 3 {
		t.Errorf("A reconstructed as %v", mat.Formatted(ma))
	}
	mb := sol.Matrix(b)
	if mb.At(0, 0) != 7 {
		t.Errorf("B reconstructed as %g, want 7", mb.At(0, 0))
	}
}

func TestNegate(t *testing.T) {
	p := NewProgram()
	x := p.NewVariable("x", 1)

	e := NewExpr(1)
	_ = e.AddScaledVar(x, 2)
	_ = e.AddConst(mat.NewDense(1, 1, []float64{1}))

	neg := e.Negate()
	p.Require("n", neg)

	c := p.Compile()
	got := c.Constraints[0].Eval([]float64{3})
	if math.Abs(got.At(0, 0)-(-7)) > 1e-12 {
		t.Errorf("negated Eval = %g, want -7", got.At(0, 0))
	}
}

func TestAddPairDimensionError(t *testing.T) {
	p := NewProgram()
	v := p.NewVariable("v", 2)

	e := NewExpr(3)
	l := mat.NewDense(3, 2, nil)
	r := mat.NewDense(1, 3, nil)
	if err := e.AddPair(l, v, r); err == nil {
		t.Error("expected dimension error for mismatched pair factors")
	}
}
