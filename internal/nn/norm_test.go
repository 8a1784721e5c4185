package nn

import (
	"math"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

// TestLayerNorm_Forward tests that each sample is normalized to zero
// mean and unit variance before scale and shift.
func TestLayerNorm_Forward(t *testing.T) {
	ln := NewLayerNorm(tensor.Shape{4})
	x := tensor.New([]float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}, tensor.Shape{2, 4})

	y := ln.Forward(x)

	for i := 0; i < 2; i++ {
		row := y.Data()[i*4 : (i+1)*4]
		var mean float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= 4
		var variance float64
		for _, v := range row {
			variance += (float64(v) - mean) * (float64(v) - mean)
		}
		variance /= 4
		if math.Abs(mean) > 1e-4 {
			t.Errorf("row %d: mean %v, expected 0", i, mean)
		}
		if math.Abs(variance-1) > 1e-3 {
			t.Errorf("row %d: variance %v, expected 1", i, variance)
		}
	}

	// Both rows are affine images of [1,2,3,4], so they normalize to the
	// same values.
	assertClose(t, y.Data()[:4], y.Data()[4:], 1e-5)
}

// TestLayerNorm_ScaleShift tests that weight and bias are applied after
// normalization.
func TestLayerNorm_ScaleShift(t *testing.T) {
	ln := NewLayerNorm(tensor.Shape{2})
	copy(ln.Parameters()[0].Tensor().Data(), []float32{2, 2})
	copy(ln.Parameters()[1].Tensor().Data(), []float32{5, 5})

	y := ln.Forward(tensor.New([]float32{-1, 1}, tensor.Shape{1, 2}))
	// normalized: [-1, 1] (mean 0, std 1), then *2 + 5
	assertClose(t, y.Data(), []float32{3, 7}, 1e-3)
}

// TestBatchNorm1D_TrainingForward tests normalization over the batch
// axis in training mode.
func TestBatchNorm1D_TrainingForward(t *testing.T) {
	bn := NewBatchNorm1D(2)
	x := tensor.New([]float32{
		1, 10,
		3, 20,
		5, 30,
	}, tensor.Shape{3, 2})

	y := bn.Forward(x)

	// Each column is normalized with its own batch statistics.
	for c := 0; c < 2; c++ {
		var mean float64
		for i := 0; i < 3; i++ {
			mean += float64(y.Data()[i*2+c])
		}
		mean /= 3
		if math.Abs(mean) > 1e-4 {
			t.Errorf("channel %d: mean %v, expected 0", c, mean)
		}
	}
}

// TestBatchNorm1D_RunningStats tests that training forwards update the
// running statistics and eval forwards use them unchanged.
func TestBatchNorm1D_RunningStats(t *testing.T) {
	bn := NewBatchNorm1D(1)
	x := tensor.New([]float32{2, 4, 6}, tensor.Shape{3, 1})

	bn.Forward(x)

	state := bn.StateDict()
	// momentum 0.1: rmean = 0.9*0 + 0.1*4 = 0.4
	// running var uses the unbiased estimate: var([2,4,6], ddof=1) = 4,
	// rvar = 0.9*1 + 0.1*4 = 1.3
	assertClose(t, state["running_mean"].Data(), []float32{0.4}, 1e-5)
	assertClose(t, state["running_var"].Data(), []float32{1.3}, 1e-5)

	bn.SetTraining(false)
	bn.Forward(x)
	after := bn.StateDict()
	assertClose(t, after["running_mean"].Data(), []float32{0.4}, 1e-6)
	assertClose(t, after["running_var"].Data(), []float32{1.3}, 1e-6)
}

// TestBatchNorm1D_EvalUsesRunningStats tests that evaluation mode
// normalizes with the stored statistics, not the batch ones.
func TestBatchNorm1D_EvalUsesRunningStats(t *testing.T) {
	bn := NewBatchNorm1D(1)
	bn.SetTraining(false)

	// Fresh running stats are mean 0, var 1, so eval is near-identity.
	x := tensor.New([]float32{-1, 0, 1}, tensor.Shape{3, 1})
	y := bn.Forward(x)
	assertClose(t, y.Data(), []float32{-1, 0, 1}, 1e-4)
}

// TestBatchNorm2D_Shapes tests the [N, C, H, W] path.
func TestBatchNorm2D_Shapes(t *testing.T) {
	bn := NewBatchNorm2D(3)
	x := tensor.Randn(tensor.Shape{2, 3, 4, 4})
	y := bn.Forward(x)
	if !y.Shape().Equal(x.Shape()) {
		t.Errorf("output shape: expected %v, got %v", x.Shape(), y.Shape())
	}

	// Per-channel means over (N, H, W) are zero in training mode.
	m := y.MeanAxes([]int{0, 2, 3}, false)
	for c, v := range m.Data() {
		if math.Abs(float64(v)) > 1e-4 {
			t.Errorf("channel %d: mean %v, expected 0", c, v)
		}
	}
}

// TestBatchNorm1D_SequenceInput tests the [N, C, L] path.
func TestBatchNorm1D_SequenceInput(t *testing.T) {
	bn := NewBatchNorm1D(2)
	x := tensor.Randn(tensor.Shape{3, 2, 5})
	y := bn.Forward(x)
	if !y.Shape().Equal(x.Shape()) {
		t.Errorf("output shape: expected %v, got %v", x.Shape(), y.Shape())
	}
}
