package nn

import (
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

// TestLinear_Creation tests layer creation and parameter shapes.
func TestLinear_Creation(t *testing.T) {
	lin := NewLinear(4, 3)

	if !lin.Weight().Tensor().Shape().Equal(tensor.Shape{3, 4}) {
		t.Errorf("weight shape: expected [3 4], got %v", lin.Weight().Tensor().Shape())
	}
	if !lin.Bias().Tensor().Shape().Equal(tensor.Shape{3}) {
		t.Errorf("bias shape: expected [3], got %v", lin.Bias().Tensor().Shape())
	}
	if len(lin.Parameters()) != 2 {
		t.Errorf("expected 2 parameters, got %d", len(lin.Parameters()))
	}

	noBias := NewLinearNoBias(4, 3)
	if len(noBias.Parameters()) != 1 {
		t.Errorf("expected 1 parameter without bias, got %d", len(noBias.Parameters()))
	}
}

// TestLinear_ForwardValues tests y = x @ Wᵀ + b with known values.
func TestLinear_ForwardValues(t *testing.T) {
	lin := NewLinear(2, 2)
	copy(lin.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(lin.Bias().Tensor().Data(), []float32{10, 20})

	x := tensor.New([]float32{1, 1, 2, 3}, tensor.Shape{2, 2})
	y := lin.Forward(x)

	// Row 0: [1*1+1*2+10, 1*3+1*4+20] = [13, 27]
	// Row 1: [2*1+3*2+10, 2*3+3*4+20] = [18, 38]
	want := []float32{13, 27, 18, 38}
	for i, w := range want {
		if y.Data()[i] != w {
			t.Errorf("output[%d]: expected %v, got %v", i, w, y.Data()[i])
		}
	}
}

// TestLinear_BackwardValues tests the input and parameter gradients with
// hand-computed values.
func TestLinear_BackwardValues(t *testing.T) {
	lin := NewLinear(2, 2)
	copy(lin.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(lin.Bias().Tensor().Data(), []float32{0, 0})

	x := tensor.New([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	lin.Forward(x)

	dy := tensor.New([]float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	dx := lin.Backward(dy)

	// dx = dy @ W: row 0 picks W row 0, row 1 picks W row 1.
	wantDx := []float32{1, 2, 3, 4}
	for i, w := range wantDx {
		if dx.Data()[i] != w {
			t.Errorf("dx[%d]: expected %v, got %v", i, w, dx.Data()[i])
		}
	}

	// dW = dyᵀ @ x = [[1,2],[3,4]], db = column sums of dy = [1,1].
	wantDw := []float32{1, 2, 3, 4}
	for i, w := range wantDw {
		if lin.Weight().Grad().Data()[i] != w {
			t.Errorf("dW[%d]: expected %v, got %v", i, w, lin.Weight().Grad().Data()[i])
		}
	}
	for i, w := range []float32{1, 1} {
		if lin.Bias().Grad().Data()[i] != w {
			t.Errorf("db[%d]: expected %v, got %v", i, w, lin.Bias().Grad().Data()[i])
		}
	}
}

// TestLinear_GradientAccumulation tests that two backward passes add
// their parameter gradients instead of overwriting them.
func TestLinear_GradientAccumulation(t *testing.T) {
	lin := NewLinear(2, 2)
	x := tensor.Ones(tensor.Shape{1, 2})
	dy := tensor.Ones(tensor.Shape{1, 2})

	lin.Forward(x)
	lin.Backward(dy)
	first := lin.Weight().Grad().Clone()

	lin.Forward(x)
	lin.Backward(dy)
	doubled := first.MulScalar(2)
	if !lin.Weight().Grad().AllClose(doubled, 1e-6) {
		t.Error("expected second backward to double the accumulated weight gradient")
	}
}

// TestLinear_ForwardShapeMismatchPanics tests input validation.
func TestLinear_ForwardShapeMismatchPanics(t *testing.T) {
	lin := NewLinear(4, 3)
	mustPanic(t, "Linear", func() {
		lin.Forward(tensor.Ones(tensor.Shape{2, 5}))
	})
}

// TestLinear_StateDictRoundtrip tests saving weights into a fresh layer.
func TestLinear_StateDictRoundtrip(t *testing.T) {
	tensor.SetSeed(1)
	src := NewLinear(3, 2)
	dst := NewLinear(3, 2)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}
	if !dst.Weight().Tensor().AllClose(src.Weight().Tensor(), 0) {
		t.Error("weights differ after state dict roundtrip")
	}

	bad := map[string]*tensor.Tensor{"weight": tensor.Ones(tensor.Shape{9, 9})}
	if err := dst.LoadStateDict(bad); err == nil {
		t.Error("expected error loading mismatched state dict")
	}
}
