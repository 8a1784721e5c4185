package optim

import (
	"fmt"
	"math"

	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m = beta1 * m + (1-beta1) * grad
//	v = beta2 * v + (1-beta2) * grad²
//	m_hat = m / (1 - beta1^t)
//	v_hat = v / (1 - beta2^t)
//	param -= lr * m_hat / (sqrt(v_hat) + eps)
//
// With WeightDecay > 0 the penalty is added to the gradient before the
// moment updates (classic L2, not decoupled). See AdamW for decoupled
// weight decay.
//
// Reference: "Adam: A Method for Stochastic Optimization"
// (Kingma & Ba, 2014).
type Adam struct {
	params      []*nn.Parameter
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	decoupled   bool
	t           int
	m           map[*nn.Parameter]*tensor.Tensor
	v           map[*nn.Parameter]*tensor.Tensor
}

// AdamConfig holds configuration for the Adam and AdamW optimizers.
type AdamConfig struct {
	LR          float32    // learning rate (default 0.001)
	Betas       [2]float32 // moment decay rates (default [0.9, 0.999])
	Eps         float32    // numerical stability term (default 1e-8)
	WeightDecay float32    // weight decay coefficient (default 0)
}

func (c *AdamConfig) applyDefaults() {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Betas[0] == 0 {
		c.Betas[0] = 0.9
	}
	if c.Betas[1] == 0 {
		c.Betas[1] = 0.999
	}
	if c.Eps == 0 {
		c.Eps = 1e-8
	}
}

// NewAdam creates an Adam optimizer for the given parameters.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	config.applyDefaults()
	return &Adam{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make(map[*nn.Parameter]*tensor.Tensor),
		v:           make(map[*nn.Parameter]*tensor.Tensor),
	}
}

// NewAdamW creates an Adam optimizer with decoupled weight decay, where
// the decay is applied directly to the parameters instead of flowing
// through the moment estimates.
//
// Reference: "Decoupled Weight Decay Regularization"
// (Loshchilov & Hutter, 2019).
func NewAdamW(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.WeightDecay == 0 {
		config.WeightDecay = 0.01
	}
	a := NewAdam(params, config)
	a.decoupled = true
	return a
}

// Step applies one Adam update to all parameters with gradients. The
// internal timestep advances once per call, shared by all parameters.
func (a *Adam) Step() {
	a.t++
	corr1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.t)))
	corr2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = tensor.ZerosLike(param.Tensor())
			a.m[param] = m
			a.v[param] = tensor.ZerosLike(param.Tensor())
		}
		v := a.v[param]

		p := param.Tensor().Data()
		g := grad.Data()
		md := m.Data()
		vd := v.Data()

		for i := range p {
			gi := g[i]
			if a.weightDecay != 0 && !a.decoupled {
				gi += a.weightDecay * p[i]
			}

			md[i] = a.beta1*md[i] + (1-a.beta1)*gi
			vd[i] = a.beta2*vd[i] + (1-a.beta2)*gi*gi

			mHat := md[i] / corr1
			vHat := vd[i] / corr2

			if a.decoupled && a.weightDecay != 0 {
				p[i] -= a.lr * a.weightDecay * p[i]
			}
			p[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears the gradients of all tracked parameters.
func (a *Adam) ZeroGrad() {
	zeroGrads(a.params)
}

// LR returns the current learning rate.
func (a *Adam) LR() float32 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) { a.lr = lr }

// StateDict exports the moment buffers and the step counter. The step
// counter is stored as a single-element tensor under "t".
func (a *Adam) StateDict() map[string]*tensor.Tensor {
	state := map[string]*tensor.Tensor{
		"t": tensor.New([]float32{float32(a.t)}, tensor.Shape{1}),
	}
	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			state[fmt.Sprintf("m.%d", i)] = m
			state[fmt.Sprintf("v.%d", i)] = a.v[param]
		}
	}
	return state
}

// LoadStateDict restores the moment buffers and step counter from a
// checkpoint.
func (a *Adam) LoadStateDict(state map[string]*tensor.Tensor) error {
	if t, ok := state["t"]; ok {
		a.t = int(t.Data()[0])
	}
	a.m = make(map[*nn.Parameter]*tensor.Tensor)
	a.v = make(map[*nn.Parameter]*tensor.Tensor)
	for i, param := range a.params {
		m, ok := state[fmt.Sprintf("m.%d", i)]
		if !ok {
			continue
		}
		v, ok := state[fmt.Sprintf("v.%d", i)]
		if !ok {
			return fmt.Errorf("moment buffer v.%d missing from optimizer state", i)
		}
		if !m.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("moment shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), m.Shape())
		}
		a.m[param] = m.Clone()
		a.v[param] = v.Clone()
	}
	return nil
}
