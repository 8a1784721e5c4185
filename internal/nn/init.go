package nn

import (
	"math"

	"github.com/dakofler/walnut/internal/tensor"
)

// XavierUniform initializes a tensor with the Glorot uniform
// distribution U(-a, a) where a = sqrt(6 / (fan_in + fan_out)).
//
// Keeps the activation variance roughly constant across layers with
// symmetric activations (tanh, sigmoid).
func XavierUniform(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	bound := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return tensor.Uniform(shape, -bound, bound)
}

// XavierNormal initializes a tensor with N(0, 2/(fan_in + fan_out)).
func XavierNormal(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	std := float32(math.Sqrt(2.0 / float64(fanIn+fanOut)))
	return tensor.Randn(shape).MulScalar(std)
}

// KaimingUniform initializes a tensor with U(-a, a) where
// a = sqrt(6 / fan_in), the He initialization for ReLU-family
// activations.
func KaimingUniform(fanIn int, shape tensor.Shape) *tensor.Tensor {
	bound := float32(math.Sqrt(6.0 / float64(fanIn)))
	return tensor.Uniform(shape, -bound, bound)
}

// KaimingNormal initializes a tensor with N(0, 2/fan_in).
func KaimingNormal(fanIn int, shape tensor.Shape) *tensor.Tensor {
	std := float32(math.Sqrt(2.0 / float64(fanIn)))
	return tensor.Randn(shape).MulScalar(std)
}
