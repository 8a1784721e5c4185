package nn

import (
	"fmt"
	"math"

	"github.com/dakofler/walnut/internal/tensor"
)

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU struct {
	module
	y *tensor.Tensor // cached output; the backward mask is y > 0
}

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{module: newModule("ReLU")}
}

// Forward applies max(0, x).
func (r *ReLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := tensor.ZerosLike(x)
	for i, v := range x.Data() {
		if v > 0 {
			y.Data()[i] = v
		}
	}
	if r.Training() {
		r.y = y
	}
	r.forwarded()
	return y
}

// Backward passes gradients through where the forward output was
// positive.
func (r *ReLU) Backward(dy *tensor.Tensor) *tensor.Tensor {
	r.enterBackward()
	dx := tensor.ZerosLike(dy)
	for i, v := range r.y.Data() {
		if v > 0 {
			dx.Data()[i] = dy.Data()[i]
		}
	}
	return dx
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter { return nil }

// LeakyReLU applies f(x) = x for x > 0 and alpha*x otherwise.
type LeakyReLU struct {
	module
	alpha float32
	x     *tensor.Tensor
}

// NewLeakyReLU creates a LeakyReLU activation with the given negative
// slope.
func NewLeakyReLU(alpha float32) *LeakyReLU {
	return &LeakyReLU{module: newModule("LeakyReLU"), alpha: alpha}
}

// Forward applies the leaky rectifier.
func (l *LeakyReLU) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := tensor.ZerosLike(x)
	for i, v := range x.Data() {
		if v > 0 {
			y.Data()[i] = v
		} else {
			y.Data()[i] = l.alpha * v
		}
	}
	if l.Training() {
		l.x = x
	}
	l.forwarded()
	return y
}

// Backward scales gradients by 1 or alpha depending on the input sign.
func (l *LeakyReLU) Backward(dy *tensor.Tensor) *tensor.Tensor {
	l.enterBackward()
	dx := tensor.ZerosLike(dy)
	for i, v := range l.x.Data() {
		if v > 0 {
			dx.Data()[i] = dy.Data()[i]
		} else {
			dx.Data()[i] = l.alpha * dy.Data()[i]
		}
	}
	return dx
}

// Parameters returns nil.
func (l *LeakyReLU) Parameters() []*Parameter { return nil }

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)) element-wise.
type Sigmoid struct {
	module
	y *tensor.Tensor // σ'(x) = y * (1 - y)
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{module: newModule("Sigmoid")}
}

// Forward applies the logistic function.
func (s *Sigmoid) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := tensor.ZerosLike(x)
	for i, v := range x.Data() {
		y.Data()[i] = float32(1 / (1 + math.Exp(-float64(v))))
	}
	if s.Training() {
		s.y = y
	}
	s.forwarded()
	return y
}

// Backward computes dx = dy * y * (1 - y).
func (s *Sigmoid) Backward(dy *tensor.Tensor) *tensor.Tensor {
	s.enterBackward()
	dx := tensor.ZerosLike(dy)
	for i, v := range s.y.Data() {
		dx.Data()[i] = dy.Data()[i] * v * (1 - v)
	}
	return dx
}

// Parameters returns nil.
func (s *Sigmoid) Parameters() []*Parameter { return nil }

// Tanh applies the hyperbolic tangent element-wise.
type Tanh struct {
	module
	y *tensor.Tensor // tanh'(x) = 1 - y²
}

// NewTanh creates a Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{module: newModule("Tanh")}
}

// Forward applies tanh.
func (t *Tanh) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := x.Tanh()
	if t.Training() {
		t.y = y
	}
	t.forwarded()
	return y
}

// Backward computes dx = dy * (1 - y²).
func (t *Tanh) Backward(dy *tensor.Tensor) *tensor.Tensor {
	t.enterBackward()
	dx := tensor.ZerosLike(dy)
	for i, v := range t.y.Data() {
		dx.Data()[i] = dy.Data()[i] * (1 - v*v)
	}
	return dx
}

// Parameters returns nil.
func (t *Tanh) Parameters() []*Parameter { return nil }

// geluC is sqrt(2/pi), the constant of the tanh GELU approximation.
const geluC = 0.7978845608028654

// GELU applies the Gaussian Error Linear Unit using the tanh
// approximation: 0.5x * (1 + tanh(sqrt(2/pi) * (x + 0.044715x³))).
type GELU struct {
	module
	x *tensor.Tensor
}

// NewGELU creates a GELU activation module.
func NewGELU() *GELU {
	return &GELU{module: newModule("GELU")}
}

// Forward applies the tanh GELU approximation.
func (g *GELU) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := tensor.ZerosLike(x)
	for i, v := range x.Data() {
		xv := float64(v)
		inner := geluC * (xv + 0.044715*xv*xv*xv)
		y.Data()[i] = float32(0.5 * xv * (1 + math.Tanh(inner)))
	}
	if g.Training() {
		g.x = x
	}
	g.forwarded()
	return y
}

// Backward computes the derivative of the tanh approximation from the
// cached input.
func (g *GELU) Backward(dy *tensor.Tensor) *tensor.Tensor {
	g.enterBackward()
	dx := tensor.ZerosLike(dy)
	for i, v := range g.x.Data() {
		xv := float64(v)
		inner := geluC * (xv + 0.044715*xv*xv*xv)
		t := math.Tanh(inner)
		dInner := geluC * (1 + 3*0.044715*xv*xv)
		d := 0.5*(1+t) + 0.5*xv*(1-t*t)*dInner
		dx.Data()[i] = dy.Data()[i] * float32(d)
	}
	return dx
}

// Parameters returns nil.
func (g *GELU) Parameters() []*Parameter { return nil }

// Softmax normalizes the last axis into a probability distribution.
//
// Inputs are shifted by the row maximum before exponentiation to avoid
// overflow.
type Softmax struct {
	module
	y *tensor.Tensor
}

// NewSoftmax creates a Softmax activation module.
func NewSoftmax() *Softmax {
	return &Softmax{module: newModule("Softmax")}
}

// Forward computes softmax over the last axis.
func (s *Softmax) Forward(x *tensor.Tensor) *tensor.Tensor {
	if x.Dims() < 1 {
		panic(fmt.Sprintf("Softmax.Forward: need at least 1 dimension, got shape %v", x.Shape()))
	}
	shifted := x.Sub(x.MaxAxis(-1, true))
	exp := shifted.Exp()
	y := exp.Div(exp.SumAxes([]int{-1}, true))
	if s.Training() {
		s.y = y
	}
	s.forwarded()
	return y
}

// Backward computes dx = y * (dy - sum(dy * y, last axis)).
func (s *Softmax) Backward(dy *tensor.Tensor) *tensor.Tensor {
	s.enterBackward()
	dot := dy.Mul(s.y).SumAxes([]int{-1}, true)
	return s.y.Mul(dy.Sub(dot))
}

// Parameters returns nil.
func (s *Softmax) Parameters() []*Parameter { return nil }
