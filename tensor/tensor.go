// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/dakofler/walnut/internal/tensor"
)

// Shape describes the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is a dense float32 tensor with an attached gradient slot.
type Tensor = tensor.Tensor

// New creates a tensor from data and shape. It panics when the sizes
// disagree; use FromSlice for an error-returning variant.
func New(data []float32, shape Shape) *Tensor {
	return tensor.New(data, shape)
}

// FromSlice creates a tensor from data and shape, returning an error
// when the sizes disagree.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor { return tensor.Zeros(shape) }

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor { return tensor.Ones(shape) }

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor { return tensor.Full(shape, value) }

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor { return tensor.ZerosLike(t) }

// OnesLike creates a ones tensor with the shape of t.
func OnesLike(t *Tensor) *Tensor { return tensor.OnesLike(t) }

// Randn creates a tensor with samples from the standard normal
// distribution.
//
// Example:
//
//	x := tensor.Randn(tensor.Shape{32, 10})
func Randn(shape Shape) *Tensor { return tensor.Randn(shape) }

// Rand creates a tensor with samples from U[0, 1).
func Rand(shape Shape) *Tensor { return tensor.Rand(shape) }

// Uniform creates a tensor with samples from U[low, high).
func Uniform(shape Shape, low, high float32) *Tensor { return tensor.Uniform(shape, low, high) }

// Arange creates a 1D tensor with values [start, end) in steps of one.
func Arange(start, end float32) *Tensor { return tensor.Arange(start, end) }

// Eye creates an identity matrix of size n.
func Eye(n int) *Tensor { return tensor.Eye(n) }

// OneHot expands class indices into one-hot rows.
func OneHot(indices *Tensor, numClasses int) *Tensor { return tensor.OneHot(indices, numClasses) }

// Stack concatenates tensors of equal shape along a new leading axis.
func Stack(tensors []*Tensor) *Tensor { return tensor.Stack(tensors) }

// Gather selects rows of a 2D table by integer indices.
func Gather(table, indices *Tensor) *Tensor { return tensor.Gather(table, indices) }

// BroadcastShapes computes the NumPy-style broadcast result of two
// shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) { return tensor.BroadcastShapes(a, b) }

// SetSeed reseeds the package RNG used by Randn, Rand and Uniform, for
// reproducible initialization.
func SetSeed(seed int64) { tensor.SetSeed(seed) }
