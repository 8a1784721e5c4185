// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/tensor"
)

// Module is the common interface of all layers and containers.
type Module = nn.Module

// Parameter is a named trainable tensor.
type Parameter = nn.Parameter

// NewParameter creates a parameter with the given name and tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Linear is a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// NewLinearNoBias creates a linear layer without a bias term.
func NewLinearNoBias(inFeatures, outFeatures int) *Linear {
	return nn.NewLinearNoBias(inFeatures, outFeatures)
}

// Conv2D is a 2D convolution layer.
type Conv2D = nn.Conv2D

// NewConv2D creates a convolution layer with a square kernel.
//
// Example:
//
//	conv := nn.NewConv2D(1, 32, 3, 1, 1) // in=1, out=32, kernel=3, stride=1, padding=1
func NewConv2D(inChannels, outChannels, kernel, stride, padding int) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernel, stride, padding)
}

// MaxPool2D is a 2D max pooling layer.
type MaxPool2D = nn.MaxPool2D

// NewMaxPool2D creates a max pooling layer. A stride of 0 defaults to
// the kernel size.
func NewMaxPool2D(kernel, stride int) *MaxPool2D {
	return nn.NewMaxPool2D(kernel, stride)
}

// Flatten reshapes [batch, ...] inputs to [batch, features].
type Flatten = nn.Flatten

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten { return nn.NewFlatten() }

// Embedding maps integer ids to learned vectors.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding table.
func NewEmbedding(numEmbeddings, dim int) *Embedding {
	return nn.NewEmbedding(numEmbeddings, dim)
}

// Recurrent is an Elman RNN layer with tanh activation.
type Recurrent = nn.Recurrent

// NewRecurrent creates a recurrent layer. With returnSeq the full
// hidden sequence is returned, otherwise only the last hidden state.
func NewRecurrent(inFeatures, hidden int, returnSeq bool) *Recurrent {
	return nn.NewRecurrent(inFeatures, hidden, returnSeq)
}

// Activations

// ReLU is the rectified linear unit.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU { return nn.NewReLU() }

// LeakyReLU is ReLU with a small slope for negative inputs.
type LeakyReLU = nn.LeakyReLU

// NewLeakyReLU creates a LeakyReLU activation layer.
func NewLeakyReLU(alpha float32) *LeakyReLU { return nn.NewLeakyReLU(alpha) }

// Sigmoid is the logistic activation.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a sigmoid activation layer.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Tanh is the hyperbolic tangent activation.
type Tanh = nn.Tanh

// NewTanh creates a tanh activation layer.
func NewTanh() *Tanh { return nn.NewTanh() }

// GELU is the Gaussian error linear unit (tanh approximation).
type GELU = nn.GELU

// NewGELU creates a GELU activation layer.
func NewGELU() *GELU { return nn.NewGELU() }

// Softmax normalizes the last axis into a probability distribution.
type Softmax = nn.Softmax

// NewSoftmax creates a softmax layer.
func NewSoftmax() *Softmax { return nn.NewSoftmax() }

// Normalization and regularization

// BatchNorm1D normalizes [N, C] or [N, C, L] inputs per channel.
type BatchNorm1D = nn.BatchNorm1D

// NewBatchNorm1D creates a 1D batch normalization layer.
func NewBatchNorm1D(channels int) *BatchNorm1D { return nn.NewBatchNorm1D(channels) }

// BatchNorm2D normalizes [N, C, H, W] inputs per channel.
type BatchNorm2D = nn.BatchNorm2D

// NewBatchNorm2D creates a 2D batch normalization layer.
func NewBatchNorm2D(channels int) *BatchNorm2D { return nn.NewBatchNorm2D(channels) }

// LayerNorm normalizes the trailing dimensions of each sample.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a layer normalization layer over the given
// trailing shape.
func NewLayerNorm(normalizedShape tensor.Shape) *LayerNorm {
	return nn.NewLayerNorm(normalizedShape)
}

// Dropout randomly zeroes elements during training.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer with drop probability p.
func NewDropout(p float32) *Dropout { return nn.NewDropout(p) }

// Composition

// Sequential chains modules; Backward visits them in reverse order.
type Sequential = nn.Sequential

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10),
//	)
func NewSequential(modules ...Module) *Sequential { return nn.NewSequential(modules...) }

// Losses

// Loss scores predictions and produces the gradient to start the
// backward pass.
type Loss = nn.Loss

// MSELoss is the mean squared error.
type MSELoss = nn.MSELoss

// NewMSELoss creates a mean squared error loss.
func NewMSELoss() *MSELoss { return nn.NewMSELoss() }

// BCELoss is the binary cross-entropy over probabilities.
type BCELoss = nn.BCELoss

// NewBCELoss creates a binary cross-entropy loss.
func NewBCELoss() *BCELoss { return nn.NewBCELoss() }

// CrossEntropyLoss combines log-softmax and negative log likelihood.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a cross-entropy loss over logits.
func NewCrossEntropyLoss() *CrossEntropyLoss { return nn.NewCrossEntropyLoss() }

// Persistence

// Save writes a module's state dict to a .wnut file.
func Save(m Module, path string) error { return nn.Save(m, path) }

// Load restores a module's parameters from a .wnut file.
func Load(m Module, path string) error { return nn.Load(m, path) }

// Initialization

// XavierUniform samples from the Glorot uniform distribution.
func XavierUniform(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	return nn.XavierUniform(fanIn, fanOut, shape)
}

// KaimingUniform samples from the He uniform distribution.
func KaimingUniform(fanIn int, shape tensor.Shape) *tensor.Tensor {
	return nn.KaimingUniform(fanIn, shape)
}
