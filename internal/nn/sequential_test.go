package nn

import (
	"strings"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

// TestSequential_ForwardComposition tests that a Sequential forward
// equals composing the layers by hand.
func TestSequential_ForwardComposition(t *testing.T) {
	tensor.SetSeed(2)
	l1 := NewLinear(3, 4)
	act := NewTanh()
	l2 := NewLinear(4, 2)
	seq := NewSequential(l1, act, l2)

	x := tensor.Randn(tensor.Shape{5, 3})
	got := seq.Forward(x)
	want := l2.Forward(act.Forward(l1.Forward(x)))

	if !got.AllClose(want, 1e-6) {
		t.Error("Sequential forward differs from manual composition")
	}
}

// TestSequential_BackwardReverseOrder tests that Sequential backward
// equals chaining the layer backwards in reverse order.
func TestSequential_BackwardReverseOrder(t *testing.T) {
	tensor.SetSeed(4)
	seqA := NewSequential(NewLinear(3, 4), NewSigmoid(), NewLinear(4, 2))
	seqB := NewSequential(NewLinear(3, 4), NewSigmoid(), NewLinear(4, 2))
	if err := seqB.LoadStateDict(seqA.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	x := tensor.Randn(tensor.Shape{5, 3})
	dy := tensor.Randn(tensor.Shape{5, 2})

	seqA.Forward(x)
	dxA := seqA.Backward(dy)

	// Same layers, driven by hand in reverse.
	for i := 0; i < seqB.Len(); i++ {
		x = seqB.Module(i).Forward(x)
	}
	dxB := dy
	for i := seqB.Len() - 1; i >= 0; i-- {
		dxB = seqB.Module(i).Backward(dxB)
	}

	if !dxA.AllClose(dxB, 1e-5) {
		t.Error("Sequential backward differs from manual reverse chaining")
	}
	for i, p := range seqA.Parameters() {
		if !p.Grad().AllClose(seqB.Parameters()[i].Grad(), 1e-5) {
			t.Errorf("parameter %d: gradients differ between Sequential and manual chaining", i)
		}
	}
}

// TestSequential_Parameters tests parameter collection across children.
func TestSequential_Parameters(t *testing.T) {
	seq := NewSequential(NewLinear(2, 3), NewReLU(), NewLinear(3, 1))
	if len(seq.Parameters()) != 4 {
		t.Errorf("expected 4 parameters, got %d", len(seq.Parameters()))
	}

	seq.Add(NewBatchNorm1D(1))
	if len(seq.Parameters()) != 6 {
		t.Errorf("expected 6 parameters after Add, got %d", len(seq.Parameters()))
	}
}

// TestSequential_StateDictRoundtrip tests index-prefixed state dicts.
func TestSequential_StateDictRoundtrip(t *testing.T) {
	tensor.SetSeed(6)
	src := NewSequential(NewLinear(2, 3), NewReLU(), NewLinear(3, 1))
	dst := NewSequential(NewLinear(2, 3), NewReLU(), NewLinear(3, 1))

	state := src.StateDict()
	if _, ok := state["0.weight"]; !ok {
		t.Fatalf("expected key 0.weight in state dict, got keys %v", keys(state))
	}

	if err := dst.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}
	x := tensor.Randn(tensor.Shape{4, 2})
	if !dst.Forward(x).AllClose(src.Forward(x), 1e-6) {
		t.Error("outputs differ after state dict roundtrip")
	}
}

func keys(m map[string]*tensor.Tensor) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// TestSequential_Summary tests the human-readable model summary.
func TestSequential_Summary(t *testing.T) {
	seq := NewSequential(NewLinear(2, 3), NewReLU())
	s := seq.Summary()
	if !strings.Contains(s, "Linear") || !strings.Contains(s, "ReLU") {
		t.Errorf("summary missing layer labels:\n%s", s)
	}
}

// TestSequential_ModuleOutOfRangePanics tests index validation.
func TestSequential_ModuleOutOfRangePanics(t *testing.T) {
	seq := NewSequential(NewReLU())
	mustPanic(t, "Sequential", func() {
		seq.Module(3)
	})
}
