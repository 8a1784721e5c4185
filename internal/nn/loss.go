package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Loss computes a scalar training objective and, like a Module, caches
// its forward state so Backward can produce the gradient of the loss
// with respect to the predictions.
type Loss interface {
	// Forward computes the scalar loss for predictions and targets.
	Forward(pred, target *tensor.Tensor) *tensor.Tensor

	// Backward returns the gradient of the loss with respect to the
	// predictions of the preceding Forward call.
	Backward() *tensor.Tensor
}

// lossState enforces the forward-before-backward contract for losses.
type lossState struct {
	label string
	ready bool
}

func (l *lossState) forwarded() {
	l.ready = true
}

func (l *lossState) enterBackward() {
	if !l.ready {
		panic(fmt.Sprintf("%s: Backward called without a preceding Forward", l.label))
	}
	l.ready = false
}

func scalar(v float32) *tensor.Tensor {
	return tensor.New([]float32{v}, tensor.Shape{1})
}

// MSELoss computes the mean squared error mean((pred - target)²),
// the standard objective for regression.
type MSELoss struct {
	lossState
	diff *tensor.Tensor
}

// NewMSELoss creates a mean squared error loss.
func NewMSELoss() *MSELoss {
	return &MSELoss{lossState: lossState{label: "MSELoss"}}
}

// Forward computes mean((pred - target)²).
func (m *MSELoss) Forward(pred, target *tensor.Tensor) *tensor.Tensor {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("MSELoss: predictions shape %v and targets shape %v must match",
			pred.Shape(), target.Shape()))
	}
	diff := pred.Sub(target)
	m.diff = diff
	m.forwarded()
	return scalar(diff.Square().Mean())
}

// Backward returns d/dpred = 2 * (pred - target) / n.
func (m *MSELoss) Backward() *tensor.Tensor {
	m.enterBackward()
	return m.diff.MulScalar(2 / float32(m.diff.NumElements()))
}

// BCELoss computes the binary cross-entropy over probabilities:
//
//	-mean(t*log(p) + (1-t)*log(1-p))
//
// Predictions are expected in (0, 1), e.g. the output of Sigmoid. Logs
// are clipped to [-100, 100] for numerical stability, as in the
// original framework.
type BCELoss struct {
	lossState
	pred   *tensor.Tensor
	target *tensor.Tensor
}

// NewBCELoss creates a binary cross-entropy loss.
func NewBCELoss() *BCELoss {
	return &BCELoss{lossState: lossState{label: "BCELoss"}}
}

// Forward computes the clipped binary cross-entropy.
func (b *BCELoss) Forward(pred, target *tensor.Tensor) *tensor.Tensor {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("BCELoss: predictions shape %v and targets shape %v must match",
			pred.Shape(), target.Shape()))
	}

	logP := pred.Log().Clip(-100, 100)
	log1P := pred.Neg().AddScalar(1).Log().Clip(-100, 100)
	loss := target.Mul(logP).Add(target.Neg().AddScalar(1).Mul(log1P)).Neg()

	b.pred = pred
	b.target = target
	b.forwarded()
	return scalar(loss.Mean())
}

// Backward returns d/dpred = (-t/p + (1-t)/(1-p)) / n.
func (b *BCELoss) Backward() *tensor.Tensor {
	b.enterBackward()
	n := float32(b.pred.NumElements())
	left := b.target.Neg().Div(b.pred)
	right := b.target.Neg().AddScalar(1).Div(b.pred.Neg().AddScalar(1))
	return left.Add(right).DivScalar(n)
}
