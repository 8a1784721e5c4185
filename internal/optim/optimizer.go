// Package optim implements optimization algorithms for training neural
// networks.
//
// Optimizers read the gradients accumulated on the parameters during
// the backward pass and update the parameter values in place. Gradients
// are never cleared implicitly: call ZeroGrad between iterations.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    out := model.Forward(input)
//	    lossValue := loss.Forward(out, targets)
//	    model.Backward(loss.Backward())
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to all parameters from their accumulated
	// gradients. Parameters without a gradient are skipped.
	Step()

	// ZeroGrad clears the gradients of all tracked parameters.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate, for scheduling.
	SetLR(lr float32)

	// StateDict exports the optimizer state (moment buffers, step
	// counters) for checkpointing.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores the optimizer state from a checkpoint.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// zeroGrads clears the gradients of all parameters.
func zeroGrads(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
