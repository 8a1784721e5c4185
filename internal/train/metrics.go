package train

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Metric scores predictions against targets. Higher is better for
// Accuracy and R²; metrics are evaluated on the validation set after
// each epoch.
type Metric interface {
	// Name identifies the metric in logs and history records.
	Name() string

	// Compute scores a batch of predictions against targets.
	Compute(pred, target *tensor.Tensor) float32
}

// Accuracy is the fraction of correctly classified samples. Predictions
// are class scores of shape [N, C]; targets hold class indices of
// shape [N].
type Accuracy struct{}

// Name returns "accuracy".
func (Accuracy) Name() string { return "accuracy" }

// Compute returns correct / total.
func (Accuracy) Compute(pred, target *tensor.Tensor) float32 {
	if pred.Dims() != 2 {
		panic(fmt.Sprintf("Accuracy: predictions must be 2D [batch, classes], got shape %v", pred.Shape()))
	}
	n := pred.Shape()[0]
	if target.NumElements() != n {
		panic(fmt.Sprintf("Accuracy: expected %d targets, got %d", n, target.NumElements()))
	}

	predicted := pred.ArgmaxAxis(1)
	var correct int
	for i := 0; i < n; i++ {
		if predicted.Data()[i] == target.Data()[i] {
			correct++
		}
	}
	return float32(correct) / float32(n)
}

// R2 is the coefficient of determination for regression:
//
//	R² = 1 - sum((y - ŷ)²) / sum((y - mean(y))²)
//
// A perfect fit scores 1; predicting the target mean scores 0.
type R2 struct{}

// Name returns "r2".
func (R2) Name() string { return "r2" }

// Compute returns 1 - residual/total variance.
func (R2) Compute(pred, target *tensor.Tensor) float32 {
	if pred.NumElements() != target.NumElements() {
		panic(fmt.Sprintf("R2: prediction and target sizes differ: %d vs %d",
			pred.NumElements(), target.NumElements()))
	}

	mean := target.Mean()
	var residual, total float64
	for i, y := range target.Data() {
		d := float64(y - pred.Data()[i])
		residual += d * d
		m := float64(y - mean)
		total += m * m
	}
	if total == 0 {
		if residual == 0 {
			return 1
		}
		return 0
	}
	return float32(1 - residual/total)
}
