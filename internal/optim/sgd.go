package optim

import (
	"fmt"

	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum,
// Nesterov momentum and weight decay.
//
// Update rule without momentum:
//
//	param -= lr * (grad + weight_decay * param)
//
// With momentum:
//
//	velocity = momentum * velocity - lr * grad
//	param += velocity                              (classic)
//	param += momentum * velocity - lr * grad       (Nesterov)
type SGD struct {
	params      []*nn.Parameter
	lr          float32
	momentum    float32
	nesterov    bool
	weightDecay float32
	velocities  map[*nn.Parameter]*tensor.Tensor
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR          float32 // learning rate (default 0.01)
	Momentum    float32 // momentum factor in [0, 1) (default 0)
	Nesterov    bool    // use Nesterov momentum (requires Momentum > 0)
	WeightDecay float32 // L2 penalty coefficient (default 0)
}

// NewSGD creates an SGD optimizer for the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Nesterov && config.Momentum == 0 {
		panic("SGD: Nesterov momentum requires Momentum > 0")
	}
	return &SGD{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		nesterov:    config.Nesterov,
		weightDecay: config.WeightDecay,
		velocities:  make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// Step applies one SGD update to all parameters with gradients.
func (s *SGD) Step() {
	for _, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		p := param.Tensor().Data()
		g := grad.Data()

		if s.momentum == 0 {
			for i := range p {
				gi := g[i] + s.weightDecay*p[i]
				p[i] -= s.lr * gi
			}
			continue
		}

		velocity, ok := s.velocities[param]
		if !ok {
			velocity = tensor.ZerosLike(param.Tensor())
			s.velocities[param] = velocity
		}
		v := velocity.Data()

		for i := range p {
			gi := g[i] + s.weightDecay*p[i]
			v[i] = s.momentum*v[i] - s.lr*gi
			if s.nesterov {
				p[i] += s.momentum*v[i] - s.lr*gi
			} else {
				p[i] += v[i]
			}
		}
	}
}

// ZeroGrad clears the gradients of all tracked parameters.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}

// LR returns the current learning rate.
func (s *SGD) LR() float32 { return s.lr }

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) { s.lr = lr }

// StateDict exports the velocity buffers, keyed by parameter index.
func (s *SGD) StateDict() map[string]*tensor.Tensor {
	state := make(map[string]*tensor.Tensor)
	if s.momentum == 0 {
		return state
	}
	for i, param := range s.params {
		if velocity, ok := s.velocities[param]; ok {
			state[fmt.Sprintf("velocity.%d", i)] = velocity
		}
	}
	return state
}

// LoadStateDict restores velocity buffers from a checkpoint. Missing
// buffers are initialized lazily on the next Step.
func (s *SGD) LoadStateDict(state map[string]*tensor.Tensor) error {
	if s.momentum == 0 {
		return nil
	}
	s.velocities = make(map[*nn.Parameter]*tensor.Tensor)
	for i, param := range s.params {
		velocity, ok := state[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !velocity.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), velocity.Shape())
		}
		s.velocities[param] = velocity.Clone()
	}
	return nil
}
