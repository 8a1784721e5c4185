// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers with explicit forward and
// backward passes.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, MaxPool2D, Flatten, Embedding, Recurrent
//   - Activations: ReLU, LeakyReLU, Sigmoid, Tanh, GELU, Softmax
//   - Normalization: BatchNorm1D, BatchNorm2D, LayerNorm, Dropout
//   - Loss functions: MSELoss, BCELoss, CrossEntropyLoss
//   - Composition: Sequential, the Module interface, Parameter
//   - Persistence: Save, Load
//
// # The forward/backward contract
//
// Walnut records no computation graph. Each module caches what its own
// backward pass needs during Forward, and Backward consumes that cache:
//
//	out := model.Forward(x)             // training mode caches state
//	lossValue := criterion.Forward(out, targets)
//	grad := criterion.Backward()        // dLoss/dOut
//	model.Backward(grad)                // accumulates parameter grads
//
// Backward must follow a completed Forward in training mode; calling it
// out of order, or after a forward in inference mode, panics. Backward
// in a Sequential visits the layers in exact reverse order of Forward.
//
// # Basic Usage
//
//	import "github.com/dakofler/walnut/nn"
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
//
//	out := model.Forward(input)
//
// # Loss Functions
//
// CrossEntropyLoss for classification over logits (numerically stable):
//
//	criterion := nn.NewCrossEntropyLoss()
//	lossValue := criterion.Forward(logits, classIndices)
//
// MSELoss for regression:
//
//	criterion := nn.NewMSELoss()
//	lossValue := criterion.Forward(predictions, targets)
//
// # Parameter Management
//
// Access model parameters for optimization:
//
//	params := model.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// Gradients accumulate across backward passes until the optimizer's
// ZeroGrad clears them.
package nn
