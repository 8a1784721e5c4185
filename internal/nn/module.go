// Package nn implements the neural network modules of walnut.
//
// The package is built around a manual forward/backward contract: there
// is no autograd graph. Every module caches the forward-pass state its
// own backward pass needs, and the caller composes Forward and Backward
// calls in exactly mirrored order:
//
//	y := layer.Forward(x)
//	// ... compute dy from the loss ...
//	dx := layer.Backward(dy)
//
// Sequential does this bookkeeping for a linear stack of modules.
// Custom models hand-write both methods with the obligation that
// Backward invokes sub-module backwards in the exact reverse order of
// the Forward invocations.
package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Forward consumes an input tensor, caches whatever intermediate values
// Backward will need (in training mode only) and returns the output.
// Backward consumes the gradient of the loss with respect to the
// module's output, accumulates parameter gradients, and returns the
// gradient with respect to the module's input.
//
// Calling Backward without a preceding Forward in training mode is a
// contract violation and panics immediately.
type Module interface {
	// Forward computes the module output for the given input.
	Forward(x *tensor.Tensor) *tensor.Tensor

	// Backward computes the input gradient from the output gradient,
	// using the state cached by the preceding Forward call.
	Backward(dy *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return nil.
	Parameters() []*Parameter

	// SetTraining switches between training mode (Forward caches state
	// for Backward) and inference mode (no caching, no Backward).
	SetTraining(training bool)

	// Label returns the module's display name.
	Label() string

	// StateDict returns the module's persistent state (parameters and
	// buffers such as batchnorm running statistics) keyed by name.
	StateDict() map[string]*tensor.Tensor

	// LoadStateDict restores persistent state from a state dict.
	LoadStateDict(state map[string]*tensor.Tensor) error
}

// modulePhase tracks the forward/backward state machine of a module.
type modulePhase uint8

const (
	phaseIdle modulePhase = iota
	phaseForwardDone
)

// module is the embeddable base for all layers. It carries the label,
// the training flag and the call-order state machine.
type module struct {
	label    string
	training bool
	phase    modulePhase
}

func newModule(label string) module {
	return module{label: label, training: true}
}

// Label returns the module's display name.
func (m *module) Label() string {
	return m.label
}

// SetTraining switches between training and inference mode.
func (m *module) SetTraining(training bool) {
	m.training = training
	m.phase = phaseIdle
}

// Training reports whether the module is in training mode.
func (m *module) Training() bool {
	return m.training
}

// forwarded records a completed forward pass. In inference mode no
// state is cached, so the phase stays idle and Backward remains a
// contract violation.
func (m *module) forwarded() {
	if m.training {
		m.phase = phaseForwardDone
	} else {
		m.phase = phaseIdle
	}
}

// enterBackward enforces the call-order invariant: Backward may only
// run after a matching Forward in training mode, and consumes the
// cached state so a second Backward is rejected as well.
func (m *module) enterBackward() {
	if m.phase != phaseForwardDone {
		panic(fmt.Sprintf("%s: Backward called without a preceding Forward in training mode", m.label))
	}
	m.phase = phaseIdle
}

// StateDict returns an empty state dict. Layers with persistent state
// override this.
func (m *module) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{}
}

// LoadStateDict accepts an empty state dict. Layers with persistent
// state override this.
func (m *module) LoadStateDict(state map[string]*tensor.Tensor) error {
	return nil
}

// loadInto copies a named tensor from a state dict into dst, checking
// presence and shape. Shared by the layer LoadStateDict
// implementations.
func loadInto(label string, state map[string]*tensor.Tensor, name string, dst *tensor.Tensor) error {
	src, ok := state[name]
	if !ok {
		return fmt.Errorf("%s: missing %q in state dict", label, name)
	}
	if !src.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s: %q shape mismatch: expected %v, got %v",
			label, name, dst.Shape(), src.Shape())
	}
	copy(dst.Data(), src.Data())
	return nil
}
