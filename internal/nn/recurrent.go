package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Recurrent implements an Elman RNN with tanh activation:
//
//	h_t = tanh(x_t @ Wx + h_{t-1} @ Wh + b)
//
//	input:  [batch, seq, in_features]
//	output: [batch, seq, hidden] with return sequences,
//	        [batch, hidden] otherwise (last step only)
//
// The backward pass runs full backpropagation through time, mirroring
// the forward steps in exact reverse order.
type Recurrent struct {
	module
	inFeatures int
	hidden     int
	returnSeq  bool
	wx         *Parameter // [in_features, hidden]
	wh         *Parameter // [hidden, hidden]
	bias       *Parameter // [hidden]

	steps  []*tensor.Tensor // cached x_t, each [batch, in_features]
	states []*tensor.Tensor // cached h_t, each [batch, hidden]; states[0] is h_0 = 0
}

// NewRecurrent creates an Elman RNN layer. With returnSeq the full
// hidden sequence is returned, otherwise only the last hidden state.
func NewRecurrent(inFeatures, hidden int, returnSeq bool) *Recurrent {
	return &Recurrent{
		module:     newModule("Recurrent"),
		inFeatures: inFeatures,
		hidden:     hidden,
		returnSeq:  returnSeq,
		wx:         NewParameter("wx", XavierUniform(inFeatures, hidden, tensor.Shape{inFeatures, hidden})),
		wh:         NewParameter("wh", XavierUniform(hidden, hidden, tensor.Shape{hidden, hidden})),
		bias:       NewParameter("bias", tensor.Zeros(tensor.Shape{hidden})),
	}
}

// step extracts time step t of a [batch, seq, features] tensor as a
// [batch, features] tensor.
func step(x *tensor.Tensor, t int) *tensor.Tensor {
	shape := x.Shape()
	batch, seq, features := shape[0], shape[1], shape[2]
	out := tensor.Zeros(tensor.Shape{batch, features})
	for b := 0; b < batch; b++ {
		src := x.Data()[(b*seq+t)*features : (b*seq+t+1)*features]
		copy(out.Data()[b*features:(b+1)*features], src)
	}
	return out
}

// Forward runs the recurrence over the sequence dimension.
func (r *Recurrent) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("Recurrent.Forward: expected 3D input [batch, seq, features], got shape %v", shape))
	}
	if shape[2] != r.inFeatures {
		panic(fmt.Sprintf("Recurrent.Forward: expected %d input features, got %d", r.inFeatures, shape[2]))
	}

	batch, seq := shape[0], shape[1]
	biasRow := r.bias.Tensor().Reshape(1, r.hidden)

	steps := make([]*tensor.Tensor, seq)
	states := make([]*tensor.Tensor, seq+1)
	states[0] = tensor.Zeros(tensor.Shape{batch, r.hidden})

	for t := 0; t < seq; t++ {
		xt := step(x, t)
		pre := xt.MatMul(r.wx.Tensor()).
			Add(states[t].MatMul(r.wh.Tensor())).
			Add(biasRow)
		states[t+1] = pre.Tanh()
		steps[t] = xt
	}

	if r.Training() {
		r.steps = steps
		r.states = states
	}
	r.forwarded()

	if !r.returnSeq {
		return states[seq]
	}

	// Assemble [batch, seq, hidden] from the per-step states.
	out := tensor.Zeros(tensor.Shape{batch, seq, r.hidden})
	for t := 0; t < seq; t++ {
		for b := 0; b < batch; b++ {
			copy(out.Data()[(b*seq+t)*r.hidden:(b*seq+t+1)*r.hidden],
				states[t+1].Data()[b*r.hidden:(b+1)*r.hidden])
		}
	}
	return out
}

// Backward runs backpropagation through time, visiting the steps in
// exact reverse order of the forward pass.
func (r *Recurrent) Backward(dy *tensor.Tensor) *tensor.Tensor {
	r.enterBackward()

	seq := len(r.steps)
	batch := r.steps[0].Shape()[0]

	if r.returnSeq {
		want := tensor.Shape{batch, seq, r.hidden}
		if !dy.Shape().Equal(want) {
			panic(fmt.Sprintf("Recurrent.Backward: expected gradient shape %v, got %v", want, dy.Shape()))
		}
	} else {
		want := tensor.Shape{batch, r.hidden}
		if !dy.Shape().Equal(want) {
			panic(fmt.Sprintf("Recurrent.Backward: expected gradient shape %v, got %v", want, dy.Shape()))
		}
	}

	dwx := tensor.ZerosLike(r.wx.Tensor())
	dwh := tensor.ZerosLike(r.wh.Tensor())
	db := tensor.ZerosLike(r.bias.Tensor())
	dx := tensor.Zeros(tensor.Shape{batch, seq, r.inFeatures})

	dhNext := tensor.Zeros(tensor.Shape{batch, r.hidden})
	wxT := r.wx.Tensor().Transpose()
	whT := r.wh.Tensor().Transpose()

	for t := seq - 1; t >= 0; t-- {
		var dh *tensor.Tensor
		if r.returnSeq {
			dh = step(dy, t).Add(dhNext)
		} else if t == seq-1 {
			dh = dy.Add(dhNext)
		} else {
			dh = dhNext
		}

		// Through tanh: da = dh * (1 - h_t²).
		h := r.states[t+1]
		da := tensor.ZerosLike(dh)
		for i, v := range h.Data() {
			da.Data()[i] = dh.Data()[i] * (1 - v*v)
		}

		for i, v := range r.steps[t].Transpose().MatMul(da).Data() {
			dwx.Data()[i] += v
		}
		for i, v := range r.states[t].Transpose().MatMul(da).Data() {
			dwh.Data()[i] += v
		}
		for i, v := range da.SumAxes([]int{0}, false).Data() {
			db.Data()[i] += v
		}

		dxt := da.MatMul(wxT)
		for b := 0; b < batch; b++ {
			copy(dx.Data()[(b*seq+t)*r.inFeatures:(b*seq+t+1)*r.inFeatures],
				dxt.Data()[b*r.inFeatures:(b+1)*r.inFeatures])
		}
		dhNext = da.MatMul(whT)
	}

	r.wx.Tensor().AccumulateGrad(dwx)
	r.wh.Tensor().AccumulateGrad(dwh)
	r.bias.Tensor().AccumulateGrad(db)
	return dx
}

// Parameters returns [wx, wh, bias].
func (r *Recurrent) Parameters() []*Parameter {
	return []*Parameter{r.wx, r.wh, r.bias}
}

// StateDict returns the recurrence weights keyed by name.
func (r *Recurrent) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"wx":   r.wx.Tensor(),
		"wh":   r.wh.Tensor(),
		"bias": r.bias.Tensor(),
	}
}

// LoadStateDict restores the recurrence weights from a state dict.
func (r *Recurrent) LoadStateDict(state map[string]*tensor.Tensor) error {
	for name, dst := range map[string]*tensor.Tensor{
		"wx":   r.wx.Tensor(),
		"wh":   r.wh.Tensor(),
		"bias": r.bias.Tensor(),
	} {
		if err := loadInto(r.label, state, name, dst); err != nil {
			return err
		}
	}
	return nil
}
