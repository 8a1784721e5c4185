package nn

import (
	"math"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

func assertClose(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > float64(tol) {
			t.Errorf("value[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestReLUForward tests max(0, x) with negative and positive inputs.
func TestReLUForward(t *testing.T) {
	relu := NewReLU()
	x := tensor.New([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})
	y := relu.Forward(x)
	assertClose(t, y.Data(), []float32{0, 0, 0, 0.5, 2}, 0)
}

// TestReLUBackward tests that gradients pass only where the input was
// positive.
func TestReLUBackward(t *testing.T) {
	relu := NewReLU()
	x := tensor.New([]float32{-2, -0.5, 0.5, 2}, tensor.Shape{4})
	relu.Forward(x)
	dx := relu.Backward(tensor.New([]float32{1, 2, 3, 4}, tensor.Shape{4}))
	assertClose(t, dx.Data(), []float32{0, 0, 3, 4}, 0)
}

// TestLeakyReLUForward tests the leaky slope on negative inputs.
func TestLeakyReLUForward(t *testing.T) {
	lrelu := NewLeakyReLU(0.1)
	x := tensor.New([]float32{-2, -1, 0, 1, 2}, tensor.Shape{5})
	y := lrelu.Forward(x)
	assertClose(t, y.Data(), []float32{-0.2, -0.1, 0, 1, 2}, 1e-6)
}

// TestSigmoidForward tests 1/(1+e^-x) against known values.
func TestSigmoidForward(t *testing.T) {
	sig := NewSigmoid()
	x := tensor.New([]float32{-2, -1, 0, 1, 2}, tensor.Shape{5})
	y := sig.Forward(x)
	assertClose(t, y.Data(), []float32{0.1192, 0.2689, 0.5, 0.7311, 0.8808}, 1e-3)
}

// TestTanhForward tests tanh against known values.
func TestTanhForward(t *testing.T) {
	tanh := NewTanh()
	x := tensor.New([]float32{-1, 0, 1}, tensor.Shape{3})
	y := tanh.Forward(x)
	assertClose(t, y.Data(), []float32{-0.7616, 0, 0.7616}, 1e-3)
}

// TestGELUForward tests the tanh approximation against known values.
func TestGELUForward(t *testing.T) {
	gelu := NewGELU()
	x := tensor.New([]float32{-2, -1, 0, 1, 2}, tensor.Shape{5})
	y := gelu.Forward(x)
	// x/2 * (1 + tanh(sqrt(2/pi)*(x + 0.044715*x³)))
	assertClose(t, y.Data(), []float32{-0.0454, -0.1588, 0, 0.8412, 1.9546}, 1e-3)
}

// TestSoftmaxForward tests that rows are valid distributions and that
// equal logits give a uniform one.
func TestSoftmaxForward(t *testing.T) {
	sm := NewSoftmax()
	x := tensor.New([]float32{1, 1, 1, 0, math.MaxFloat32 / 2, 0}, tensor.Shape{2, 3})
	y := sm.Forward(x)

	// Row 0: uniform. Row 1: the max-shift keeps huge logits finite.
	assertClose(t, y.Data()[:3], []float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, 1e-5)
	assertClose(t, y.Data()[3:], []float32{0, 1, 0}, 1e-5)

	for i := 0; i < 2; i++ {
		var sum float32
		for j := 0; j < 3; j++ {
			sum += y.Data()[i*3+j]
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("row %d: probabilities sum to %v, expected 1", i, sum)
		}
	}
}
