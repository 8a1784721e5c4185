package nn

import (
	"fmt"
	"strings"

	"github.com/dakofler/walnut/internal/tensor"
)

// Sequential chains modules: forward applies them left-to-right,
// backward applies them right-to-left, each stage consuming the
// previous stage's output or gradient.
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
//	y := model.Forward(x)
//	dx := model.Backward(dy)
type Sequential struct {
	module
	modules []Module
}

// NewSequential creates a Sequential container from the given modules.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{module: newModule("Sequential"), modules: modules}
}

// Add appends a module to the sequence.
func (s *Sequential) Add(m Module) {
	s.modules = append(s.modules, m)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Forward applies all modules in order, threading each output into the
// next module's input.
func (s *Sequential) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := x
	for _, m := range s.modules {
		y = m.Forward(y)
	}
	s.forwarded()
	return y
}

// Backward applies all module backwards in exact reverse order,
// threading gradients from the last module to the first.
func (s *Sequential) Backward(dy *tensor.Tensor) *tensor.Tensor {
	s.enterBackward()
	grad := dy
	for i := len(s.modules) - 1; i >= 0; i-- {
		grad = s.modules[i].Backward(grad)
	}
	return grad
}

// Parameters returns all trainable parameters from all modules in
// order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode switch to every module.
func (s *Sequential) SetTraining(training bool) {
	s.module.SetTraining(training)
	for _, m := range s.modules {
		m.SetTraining(training)
	}
}

// StateDict collects the state of all modules, with keys prefixed by
// the module index ("0.weight", "2.bias", ...) to avoid collisions.
func (s *Sequential) StateDict() map[string]*tensor.Tensor {
	state := map[string]*tensor.Tensor{}
	for i, m := range s.modules {
		for name, t := range m.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict restores the state of all modules from a prefixed
// state dict.
func (s *Sequential) LoadStateDict(state map[string]*tensor.Tensor) error {
	for i, m := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := map[string]*tensor.Tensor{}
		for key, t := range state {
			if strings.HasPrefix(key, prefix) {
				sub[key[len(prefix):]] = t
			}
		}
		if len(sub) > 0 {
			if err := m.LoadStateDict(sub); err != nil {
				return fmt.Errorf("failed to load module %d: %w", i, err)
			}
		}
	}
	return nil
}

// Summary returns a one-line-per-module description of the model.
func (s *Sequential) Summary() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, m := range s.modules {
		numParams := 0
		for _, p := range m.Parameters() {
			numParams += p.Tensor().NumElements()
		}
		fmt.Fprintf(&sb, "  %d: %s (%d parameters)\n", i, m.Label(), numParams)
	}
	sb.WriteString(")")
	return sb.String()
}
