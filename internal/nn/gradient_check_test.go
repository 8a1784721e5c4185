package nn

import (
	"math"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

// numericalGradient approximates d(sum(w ⊙ m.Forward(x)))/dx with central
// differences. Pass w == nil for a plain sum.
func numericalGradient(m Module, x, w *tensor.Tensor, h float32) []float32 {
	weighted := func() float32 {
		y := m.Forward(x)
		if w == nil {
			return y.Sum()
		}
		return y.Mul(w).Sum()
	}

	grad := make([]float32, x.NumElements())
	data := x.Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		plus := weighted()
		data[i] = orig - h
		minus := weighted()
		data[i] = orig
		grad[i] = (plus - minus) / (2 * h)
	}
	return grad
}

// checkInputGradient compares the analytic input gradient of a module
// against a central-difference estimate for the loss sum(forward(x)).
func checkInputGradient(t *testing.T, m Module, x *tensor.Tensor, tol float32) {
	t.Helper()
	checkInputGradientWeighted(t, m, x, nil, tol)
}

// checkInputGradientWeighted is like checkInputGradient but for the loss
// sum(w ⊙ forward(x)), which exercises off-diagonal Jacobian entries for
// modules like Softmax whose plain sum is constant.
func checkInputGradientWeighted(t *testing.T, m Module, x, w *tensor.Tensor, tol float32) {
	t.Helper()
	numeric := numericalGradient(m, x, w, 1e-2)

	y := m.Forward(x)
	dy := tensor.Ones(y.Shape())
	if w != nil {
		dy = w
	}
	analytic := m.Backward(dy)

	for i, want := range numeric {
		got := analytic.Data()[i]
		if math.Abs(float64(got-want)) > float64(tol) {
			t.Errorf("input gradient[%d]: analytic %v, numeric %v", i, got, want)
		}
	}
}

// checkParamGradient compares the accumulated gradient of a parameter
// against a central-difference estimate for the loss sum(forward(x)).
func checkParamGradient(t *testing.T, m Module, p *Parameter, x *tensor.Tensor, tol float32) {
	t.Helper()
	h := float32(1e-2)
	data := p.Tensor().Data()
	numeric := make([]float32, len(data))
	for i := range data {
		orig := data[i]
		data[i] = orig + h
		plus := m.Forward(x).Sum()
		data[i] = orig - h
		minus := m.Forward(x).Sum()
		data[i] = orig
		numeric[i] = (plus - minus) / (2 * h)
	}

	p.ZeroGrad()
	y := m.Forward(x)
	m.Backward(tensor.Ones(y.Shape()))

	grad := p.Grad()
	if grad == nil {
		t.Fatalf("parameter %q has no gradient after Backward", p.Name())
	}
	for i, want := range numeric {
		got := grad.Data()[i]
		if math.Abs(float64(got-want)) > float64(tol) {
			t.Errorf("parameter %q gradient[%d]: analytic %v, numeric %v", p.Name(), i, got, want)
		}
	}
}

// TestGradientCheck_Linear verifies Linear gradients numerically.
func TestGradientCheck_Linear(t *testing.T) {
	tensor.SetSeed(7)
	lin := NewLinear(4, 3)
	x := tensor.Randn(tensor.Shape{2, 4})

	checkInputGradient(t, lin, x, 1e-2)
	checkParamGradient(t, lin, lin.Weight(), x, 1e-2)
	checkParamGradient(t, lin, lin.Bias(), x, 1e-2)
}

// TestGradientCheck_Activations verifies smooth activation gradients.
func TestGradientCheck_Activations(t *testing.T) {
	// Values away from the ReLU kink at zero.
	x := tensor.New([]float32{-1.5, -0.7, 0.4, 1.2, 2.1, -2.3}, tensor.Shape{2, 3})

	modules := []Module{NewSigmoid(), NewTanh(), NewGELU(), NewReLU(), NewLeakyReLU(0.1)}
	for _, m := range modules {
		t.Run(m.Label(), func(t *testing.T) {
			checkInputGradient(t, m, x.Clone(), 1e-2)
		})
	}
}

// TestGradientCheck_Softmax verifies the softmax Jacobian with a
// non-uniform upstream gradient (the plain sum has zero gradient).
func TestGradientCheck_Softmax(t *testing.T) {
	x := tensor.New([]float32{0.5, -0.2, 1.3, -1.0, 0.8, 0.1}, tensor.Shape{2, 3})
	w := tensor.New([]float32{1, -2, 0.5, 3, 0, -1}, tensor.Shape{2, 3})
	checkInputGradientWeighted(t, NewSoftmax(), x, w, 1e-2)
}

// TestGradientCheck_Conv2D verifies convolution gradients numerically.
func TestGradientCheck_Conv2D(t *testing.T) {
	tensor.SetSeed(11)
	conv := NewConv2D(2, 3, 2, 1, 1)
	x := tensor.Randn(tensor.Shape{2, 2, 4, 4})

	checkInputGradient(t, conv, x, 2e-2)
	checkParamGradient(t, conv, conv.Parameters()[0], x, 2e-2)
	checkParamGradient(t, conv, conv.Parameters()[1], x, 2e-2)
}

// TestGradientCheck_LayerNorm verifies layer norm gradients numerically.
func TestGradientCheck_LayerNorm(t *testing.T) {
	tensor.SetSeed(3)
	ln := NewLayerNorm(tensor.Shape{4})
	x := tensor.Randn(tensor.Shape{3, 4})

	checkInputGradient(t, ln, x, 2e-2)
	checkParamGradient(t, ln, ln.Parameters()[0], x, 2e-2)
	checkParamGradient(t, ln, ln.Parameters()[1], x, 2e-2)
}

// TestGradientCheck_BatchNorm1D verifies batch norm gradients in
// training mode, where the batch statistics depend on every sample.
func TestGradientCheck_BatchNorm1D(t *testing.T) {
	tensor.SetSeed(5)
	bn := NewBatchNorm1D(3)
	x := tensor.Randn(tensor.Shape{4, 3})

	// Running statistics shift on every Forward, but the batch
	// statistics used in training mode do not depend on them.
	checkInputGradient(t, bn, x, 2e-2)
}

// TestGradientCheck_Recurrent verifies backpropagation through time.
func TestGradientCheck_Recurrent(t *testing.T) {
	tensor.SetSeed(9)
	rnn := NewRecurrent(3, 4, true)
	x := tensor.Randn(tensor.Shape{2, 3, 3})

	checkInputGradient(t, rnn, x, 2e-2)
	for _, p := range rnn.Parameters() {
		checkParamGradient(t, rnn, p, x, 2e-2)
	}
}
