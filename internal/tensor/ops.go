package tensor

import (
	"fmt"
	"math"

	"github.com/dakofler/walnut/internal/backend/cpu"
)

// binary applies op element-wise with NumPy-style broadcasting.
func (t *Tensor) binary(other *Tensor, name string, op func(a, b float32) float32) *Tensor {
	outShape, needsBroadcast, err := BroadcastShapes(t.shape, other.shape)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	out := Zeros(outShape)
	if !needsBroadcast && t.shape.Equal(other.shape) {
		for i := range out.data {
			out.data[i] = op(t.data[i], other.data[i])
		}
		return out
	}

	aStrides := broadcastStrides(t.shape, outShape)
	bStrides := broadcastStrides(other.shape, outShape)
	outStrides := outShape.Strides()

	for i := range out.data {
		rem := i
		aIdx, bIdx := 0, 0
		for d := 0; d < len(outStrides); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		out.data[i] = op(t.data[aIdx], other.data[bIdx])
	}
	return out
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.binary(other, "add", func(a, b float32) float32 { return a + b })
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.binary(other, "sub", func(a, b float32) float32 { return a - b })
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.binary(other, "mul", func(a, b float32) float32 { return a * b })
}

// Div performs element-wise division with broadcasting.
func (t *Tensor) Div(other *Tensor) *Tensor {
	return t.binary(other, "div", func(a, b float32) float32 { return a / b })
}

// unary applies f element-wise into a new tensor.
func (t *Tensor) unary(f func(float32) float32) *Tensor {
	out := &Tensor{data: make([]float32, len(t.data)), shape: t.shape.Clone()}
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// AddScalar adds s to every element.
func (t *Tensor) AddScalar(s float32) *Tensor {
	return t.unary(func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element by s.
func (t *Tensor) MulScalar(s float32) *Tensor {
	return t.unary(func(v float32) float32 { return v * s })
}

// DivScalar divides every element by s.
func (t *Tensor) DivScalar(s float32) *Tensor {
	return t.unary(func(v float32) float32 { return v / s })
}

// Neg negates every element.
func (t *Tensor) Neg() *Tensor {
	return t.unary(func(v float32) float32 { return -v })
}

// Exp computes element-wise exp(x).
func (t *Tensor) Exp() *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Log computes the element-wise natural logarithm.
func (t *Tensor) Log() *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Log(float64(v))) })
}

// Sqrt computes the element-wise square root.
func (t *Tensor) Sqrt() *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// Square computes element-wise x².
func (t *Tensor) Square() *Tensor {
	return t.unary(func(v float32) float32 { return v * v })
}

// Pow raises every element to the power p.
func (t *Tensor) Pow(p float32) *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Pow(float64(v), float64(p))) })
}

// Tanh computes the element-wise hyperbolic tangent.
func (t *Tensor) Tanh() *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Tanh(float64(v))) })
}

// Abs computes element-wise absolute values.
func (t *Tensor) Abs() *Tensor {
	return t.unary(func(v float32) float32 { return float32(math.Abs(float64(v))) })
}

// Clip limits every element to the range [lo, hi].
func (t *Tensor) Clip(lo, hi float32) *Tensor {
	return t.unary(func(v float32) float32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})
}

// MatMul performs 2D matrix multiplication: [m, k] @ [k, n] -> [m, n].
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	if t.Dims() != 2 || other.Dims() != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", t.Dims(), other.Dims()))
	}
	m, k := t.shape[0], t.shape[1]
	k2, n := other.shape[0], other.shape[1]
	if k != k2 {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", t.shape, other.shape))
	}

	out := Zeros(Shape{m, n})
	cpu.MatMul(out.data, t.data, other.data, m, k, n)
	return out
}

// Transpose returns the transpose of a 2D tensor.
func (t *Tensor) Transpose() *Tensor {
	if t.Dims() != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got %dD", t.Dims()))
	}
	m, n := t.shape[0], t.shape[1]
	out := Zeros(Shape{n, m})
	cpu.Transpose(out.data, t.data, m, n)
	return out
}
