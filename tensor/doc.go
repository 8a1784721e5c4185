// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float32 tensors for the Walnut
// framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Walnut. This package
// provides:
//   - Dense float32 tensors with NumPy-style broadcasting
//   - Elementwise math, matrix multiplication and reductions
//   - A gradient slot on every tensor for manual backpropagation
//   - Seeded random initialization for reproducible experiments
//
// # Basic Usage
//
//	import "github.com/dakofler/walnut/tensor"
//
//	func main() {
//	    x := tensor.Randn(tensor.Shape{2, 3})
//	    y := tensor.Ones(tensor.Shape{2, 3})
//
//	    z := x.Add(y)
//	    result := x.MatMul(y.Transpose())
//	    _ = z
//	    _ = result
//	}
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros(tensor.Shape{3, 1}) // (3, 1)
//	b := tensor.Ones(tensor.Shape{3, 4})  // (3, 4)
//	c := a.Add(b)                         // (3, 4)
//
// # Gradients
//
// Every tensor carries an optional gradient of the same shape.
// Gradients accumulate additively and are only cleared explicitly:
//
//	w := tensor.Randn(tensor.Shape{4, 4})
//	w.AccumulateGrad(dw)  // adds into the gradient
//	g := w.Grad()         // nil until the first accumulation
//	w.ZeroGrad()          // explicit reset
//
// The layers in the nn package use this slot to communicate with the
// optimizers; no computation graph is recorded.
package tensor
