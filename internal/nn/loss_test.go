package nn

import (
	"math"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

// TestMSELoss tests the loss value and its gradient with known values.
func TestMSELoss(t *testing.T) {
	loss := NewMSELoss()
	pred := tensor.New([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	target := tensor.New([]float32{0, 2, 3, 6}, tensor.Shape{2, 2})

	// ((1)² + 0 + 0 + (-2)²) / 4 = 1.25
	v := loss.Forward(pred, target)
	if math.Abs(float64(v.Item()-1.25)) > 1e-6 {
		t.Errorf("loss: expected 1.25, got %v", v.Item())
	}

	// grad = 2*(pred - target)/4
	grad := loss.Backward()
	assertClose(t, grad.Data(), []float32{0.5, 0, 0, -1}, 1e-6)
}

// TestMSELoss_Zero tests that a perfect prediction has zero loss.
func TestMSELoss_Zero(t *testing.T) {
	loss := NewMSELoss()
	pred := tensor.Randn(tensor.Shape{3, 3})
	v := loss.Forward(pred, pred.Clone())
	if v.Item() != 0 {
		t.Errorf("loss: expected 0 for identical tensors, got %v", v.Item())
	}
}

// TestBCELoss tests binary cross-entropy against hand-computed values.
func TestBCELoss(t *testing.T) {
	loss := NewBCELoss()
	pred := tensor.New([]float32{0.9, 0.1, 0.8, 0.35}, tensor.Shape{4})
	target := tensor.New([]float32{1, 0, 1, 0}, tensor.Shape{4})

	// -mean(log .9, log .9, log .8, log .65) = 0.21616
	v := loss.Forward(pred, target)
	if math.Abs(float64(v.Item())-0.21616) > 1e-4 {
		t.Errorf("loss: expected 0.21616, got %v", v.Item())
	}

	// grad = (-t/p + (1-t)/(1-p)) / n
	grad := loss.Backward()
	want := []float32{-1 / (0.9 * 4), 1 / (0.9 * 4), -1 / (0.8 * 4), 1 / (0.65 * 4)}
	assertClose(t, grad.Data(), want, 1e-5)
}

// TestBCELoss_GradientNumeric verifies the BCE gradient with central
// differences.
func TestBCELoss_GradientNumeric(t *testing.T) {
	pred := tensor.New([]float32{0.3, 0.6, 0.75}, tensor.Shape{3})
	target := tensor.New([]float32{0, 1, 1}, tensor.Shape{3})

	loss := NewBCELoss()
	loss.Forward(pred, target)
	analytic := loss.Backward()

	h := float32(1e-3)
	for i := range pred.Data() {
		orig := pred.Data()[i]
		pred.Data()[i] = orig + h
		plus := NewBCELoss().Forward(pred, target).Item()
		pred.Data()[i] = orig - h
		minus := NewBCELoss().Forward(pred, target).Item()
		pred.Data()[i] = orig
		numeric := (plus - minus) / (2 * h)
		if math.Abs(float64(analytic.Data()[i]-numeric)) > 1e-2 {
			t.Errorf("gradient[%d]: analytic %v, numeric %v", i, analytic.Data()[i], numeric)
		}
	}
}

// TestCrossEntropyLoss_UniformLogits tests that equal logits give
// loss ln(C).
func TestCrossEntropyLoss_UniformLogits(t *testing.T) {
	loss := NewCrossEntropyLoss()
	pred := tensor.Zeros(tensor.Shape{4, 3})
	target := tensor.New([]float32{0, 1, 2, 0}, tensor.Shape{4})

	v := loss.Forward(pred, target)
	want := float32(math.Log(3))
	if math.Abs(float64(v.Item()-want)) > 1e-5 {
		t.Errorf("loss: expected ln(3)=%v, got %v", want, v.Item())
	}
}

// TestCrossEntropyLoss_Gradient tests grad = (softmax - onehot)/batch.
func TestCrossEntropyLoss_Gradient(t *testing.T) {
	loss := NewCrossEntropyLoss()
	pred := tensor.Zeros(tensor.Shape{2, 2})
	target := tensor.New([]float32{0, 1}, tensor.Shape{2})

	loss.Forward(pred, target)
	grad := loss.Backward()

	// softmax of zeros is [0.5, 0.5]; subtract onehot, divide by 2.
	want := []float32{-0.25, 0.25, 0.25, -0.25}
	assertClose(t, grad.Data(), want, 1e-6)

	// Each row of the gradient sums to zero.
	for i := 0; i < 2; i++ {
		sum := grad.Data()[i*2] + grad.Data()[i*2+1]
		if math.Abs(float64(sum)) > 1e-6 {
			t.Errorf("row %d: gradient sums to %v, expected 0", i, sum)
		}
	}
}

// TestCrossEntropyLoss_Stability tests that large logits do not overflow.
func TestCrossEntropyLoss_Stability(t *testing.T) {
	loss := NewCrossEntropyLoss()
	pred := tensor.New([]float32{1000, 0, 0, 1000}, tensor.Shape{2, 2})
	target := tensor.New([]float32{0, 1}, tensor.Shape{2})

	v := loss.Forward(pred, target)
	if math.IsNaN(float64(v.Item())) || math.IsInf(float64(v.Item()), 0) {
		t.Errorf("loss not finite for large logits: %v", v.Item())
	}
	if v.Item() > 1e-3 {
		t.Errorf("confident correct predictions should have near-zero loss, got %v", v.Item())
	}
}

// TestCrossEntropyLoss_TargetValidation tests class index validation.
func TestCrossEntropyLoss_TargetValidation(t *testing.T) {
	loss := NewCrossEntropyLoss()
	pred := tensor.Zeros(tensor.Shape{2, 3})
	mustPanic(t, "out of range", func() {
		loss.Forward(pred, tensor.New([]float32{0, 5}, tensor.Shape{2}))
	})
}
