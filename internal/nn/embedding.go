package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Embedding maps integer token ids to learned dense vectors.
//
//	input:  [batch] or [batch, seq] with integer-valued entries
//	output: input shape + [dim]
//
// Embedding is an input layer: Backward accumulates the table gradient
// by scatter-adding and returns nil, since there is no meaningful
// gradient with respect to discrete ids.
type Embedding struct {
	module
	numEmbeddings int
	dim           int
	weight        *Parameter

	ids *tensor.Tensor
}

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding(numEmbeddings, dim int) *Embedding {
	weight := tensor.Randn(tensor.Shape{numEmbeddings, dim})
	return &Embedding{
		module:        newModule("Embedding"),
		numEmbeddings: numEmbeddings,
		dim:           dim,
		weight:        NewParameter("weight", weight),
	}
}

// Forward gathers the rows of the table selected by the input ids.
func (e *Embedding) Forward(ids *tensor.Tensor) *tensor.Tensor {
	y := tensor.Gather(e.weight.Tensor(), ids)
	if e.Training() {
		e.ids = ids
	}
	e.forwarded()
	return y
}

// Backward scatter-adds the output gradient into the table gradient
// and returns nil (ids carry no gradient).
func (e *Embedding) Backward(dy *tensor.Tensor) *tensor.Tensor {
	e.enterBackward()

	wantElems := e.ids.NumElements() * e.dim
	if dy.NumElements() != wantElems {
		panic(fmt.Sprintf("Embedding.Backward: expected %d gradient elements, got %d",
			wantElems, dy.NumElements()))
	}

	dw := tensor.ZerosLike(e.weight.Tensor())
	for i, v := range e.ids.Data() {
		row := int(v)
		dst := dw.Data()[row*e.dim : (row+1)*e.dim]
		src := dy.Data()[i*e.dim : (i+1)*e.dim]
		for j := range dst {
			dst[j] += src[j]
		}
	}
	e.weight.Tensor().AccumulateGrad(dw)
	return nil
}

// Parameters returns [weight].
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.weight}
}

// Weight returns the embedding table parameter.
func (e *Embedding) Weight() *Parameter { return e.weight }

// StateDict returns the embedding table keyed by name.
func (e *Embedding) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{"weight": e.weight.Tensor()}
}

// LoadStateDict restores the embedding table from a state dict.
func (e *Embedding) LoadStateDict(state map[string]*tensor.Tensor) error {
	return loadInto(e.label, state, "weight", e.weight.Tensor())
}
