// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers and learning rate schedules.
//
// Optimizers read the gradients accumulated on parameters by the
// backward pass and update the parameter values in place:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	out := model.Forward(x)
//	lossValue := criterion.Forward(out, y)
//	model.Backward(criterion.Backward())
//	opt.Step()
//	opt.ZeroGrad()
package optim

import (
	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/optim"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum, Nesterov
// momentum and weight decay.
type SGD = optim.SGD

// SGDConfig holds configuration for SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// Adam is the adaptive moment estimation optimizer.
type Adam = optim.Adam

// AdamConfig holds configuration for Adam and AdamW.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

// NewAdamW creates an Adam optimizer with decoupled weight decay.
func NewAdamW(params []*nn.Parameter, config AdamConfig) *Adam {
	return optim.NewAdamW(params, config)
}

// Schedulers

// Scheduler adjusts the learning rate between epochs.
type Scheduler = optim.Scheduler

// StepLR decays the learning rate by gamma every stepSize epochs.
type StepLR = optim.StepLR

// NewStepLR creates a step decay schedule.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) *StepLR {
	return optim.NewStepLR(opt, stepSize, gamma)
}

// ExponentialLR decays the learning rate by gamma every epoch.
type ExponentialLR = optim.ExponentialLR

// NewExponentialLR creates an exponential decay schedule.
func NewExponentialLR(opt Optimizer, gamma float32) *ExponentialLR {
	return optim.NewExponentialLR(opt, gamma)
}
