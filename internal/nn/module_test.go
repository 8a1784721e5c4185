package nn

import (
	"strings"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

func mustPanic(t *testing.T, contains string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", contains)
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T: %v", r, r)
		}
		if !strings.Contains(msg, contains) {
			t.Errorf("panic %q does not contain %q", msg, contains)
		}
	}()
	f()
}

// TestBackwardWithoutForwardPanics verifies the call-order contract: in
// training mode Backward may only follow a completed Forward.
func TestBackwardWithoutForwardPanics(t *testing.T) {
	lin := NewLinear(2, 2)
	mustPanic(t, "Backward called without a preceding Forward", func() {
		lin.Backward(tensor.Ones(tensor.Shape{1, 2}))
	})
}

// TestBackwardTwicePanics verifies that a Backward consumes the cached
// forward state, so a second Backward without a new Forward panics.
func TestBackwardTwicePanics(t *testing.T) {
	lin := NewLinear(2, 2)
	x := tensor.Ones(tensor.Shape{1, 2})
	lin.Forward(x)
	lin.Backward(tensor.Ones(tensor.Shape{1, 2}))
	mustPanic(t, "Backward called without a preceding Forward", func() {
		lin.Backward(tensor.Ones(tensor.Shape{1, 2}))
	})
}

// TestBackwardInEvalModePanics verifies that evaluation-mode forwards do
// not arm Backward.
func TestBackwardInEvalModePanics(t *testing.T) {
	lin := NewLinear(2, 2)
	lin.SetTraining(false)
	lin.Forward(tensor.Ones(tensor.Shape{1, 2}))
	mustPanic(t, "Backward called without a preceding Forward", func() {
		lin.Backward(tensor.Ones(tensor.Shape{1, 2}))
	})
}

// TestLossBackwardWithoutForwardPanics verifies the same contract for
// loss functions.
func TestLossBackwardWithoutForwardPanics(t *testing.T) {
	loss := NewMSELoss()
	mustPanic(t, "Backward called without a preceding Forward", func() {
		loss.Backward()
	})
}

// TestSetTraining verifies the training flag and its propagation.
func TestSetTraining(t *testing.T) {
	seq := NewSequential(NewLinear(2, 3), NewReLU(), NewDropout(0.5))

	seq.SetTraining(false)
	drop := seq.Module(2).(*Dropout)
	x := tensor.Randn(tensor.Shape{4, 3})
	y := drop.Forward(x)
	if !y.AllClose(x, 0) {
		t.Error("Dropout in eval mode must be the identity")
	}

	seq.SetTraining(true)
	// Forward in training mode arms Backward again.
	out := seq.Forward(tensor.Ones(tensor.Shape{1, 2}))
	seq.Backward(tensor.Ones(out.Shape()))
}

// TestModuleLabels verifies that labels name the layer kind.
func TestModuleLabels(t *testing.T) {
	cases := []struct {
		m    Module
		want string
	}{
		{NewLinear(1, 1), "Linear"},
		{NewReLU(), "ReLU"},
		{NewSequential(), "Sequential"},
		{NewBatchNorm2D(3), "BatchNorm2D"},
	}
	for _, c := range cases {
		if c.m.Label() != c.want {
			t.Errorf("Label: expected %q, got %q", c.want, c.m.Label())
		}
	}
}

// TestParameterZeroGrad verifies that clearing a gradient does not leak
// into later accumulation.
func TestParameterZeroGrad(t *testing.T) {
	p := NewParameter("w", tensor.Ones(tensor.Shape{2, 2}))
	p.Tensor().AccumulateGrad(tensor.Full(tensor.Shape{2, 2}, 3))
	p.ZeroGrad()
	if p.Grad() != nil {
		t.Fatal("expected nil gradient after ZeroGrad")
	}

	p.Tensor().AccumulateGrad(tensor.Full(tensor.Shape{2, 2}, 2))
	for i, v := range p.Grad().Data() {
		if v != 2 {
			t.Errorf("gradient[%d]: expected 2 after reset, got %v", i, v)
		}
	}
}
