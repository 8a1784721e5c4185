package optim

import "math"

// Scheduler adjusts the learning rate of an optimizer between epochs.
// Call Step once per epoch after the optimizer updates.
type Scheduler interface {
	// Step advances the schedule by one epoch and updates the
	// optimizer's learning rate.
	Step()
}

// StepLR decays the learning rate by a fixed factor every stepSize
// epochs:
//
//	lr = initial * gamma^(epoch / stepSize)
type StepLR struct {
	opt      Optimizer
	initial  float32
	stepSize int
	gamma    float32
	epoch    int
}

// NewStepLR creates a step decay schedule. A stepSize of 10 with gamma
// 0.1 divides the learning rate by ten every ten epochs.
func NewStepLR(opt Optimizer, stepSize int, gamma float32) *StepLR {
	if stepSize < 1 {
		panic("StepLR: stepSize must be >= 1")
	}
	return &StepLR{opt: opt, initial: opt.LR(), stepSize: stepSize, gamma: gamma}
}

// Step advances the schedule by one epoch.
func (s *StepLR) Step() {
	s.epoch++
	decays := s.epoch / s.stepSize
	lr := s.initial * float32(math.Pow(float64(s.gamma), float64(decays)))
	s.opt.SetLR(lr)
}

// ExponentialLR decays the learning rate by gamma every epoch:
//
//	lr = initial * gamma^epoch
type ExponentialLR struct {
	opt     Optimizer
	initial float32
	gamma   float32
	epoch   int
}

// NewExponentialLR creates an exponential decay schedule.
func NewExponentialLR(opt Optimizer, gamma float32) *ExponentialLR {
	return &ExponentialLR{opt: opt, initial: opt.LR(), gamma: gamma}
}

// Step advances the schedule by one epoch.
func (e *ExponentialLR) Step() {
	e.epoch++
	lr := e.initial * float32(math.Pow(float64(e.gamma), float64(e.epoch)))
	e.opt.SetLR(lr)
}
