package nn

import (
	"fmt"
	"math"

	"github.com/dakofler/walnut/internal/tensor"
)

// CrossEntropyLoss combines a log-softmax over the last axis with the
// negative log likelihood of integer class targets. Predictions are raw
// logits of shape [N, C]; targets hold class indices of shape [N].
type CrossEntropyLoss struct {
	lossState
	probs   *tensor.Tensor
	targets *tensor.Tensor
}

// NewCrossEntropyLoss creates a cross-entropy loss over logits.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{lossState: lossState{label: "CrossEntropyLoss"}}
}

// Forward computes -mean(log softmax(logits)[i, target[i]]) using the
// log-sum-exp trick for stability.
func (c *CrossEntropyLoss) Forward(pred, target *tensor.Tensor) *tensor.Tensor {
	if pred.Dims() != 2 {
		panic(fmt.Sprintf("CrossEntropyLoss: logits must be 2D [batch, classes], got shape %v", pred.Shape()))
	}
	if target.Dims() != 1 || target.Shape()[0] != pred.Shape()[0] {
		panic(fmt.Sprintf("CrossEntropyLoss: targets must have shape [%d], got %v",
			pred.Shape()[0], target.Shape()))
	}

	n := pred.Shape()[0]
	classes := pred.Shape()[1]
	logits := pred.Data()
	probs := make([]float32, n*classes)

	var total float64
	for i := 0; i < n; i++ {
		row := logits[i*classes : (i+1)*classes]
		maxv := row[0]
		for _, v := range row[1:] {
			if v > maxv {
				maxv = v
			}
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(float64(v - maxv))
			probs[i*classes+j] = float32(e)
			sum += e
		}
		inv := float32(1 / sum)
		for j := range row {
			probs[i*classes+j] *= inv
		}

		cls := int(target.Data()[i])
		if cls < 0 || cls >= classes {
			panic(fmt.Sprintf("CrossEntropyLoss: target class %d out of range [0, %d)", cls, classes))
		}
		// log softmax = logit - max - log(sum exp)
		total += -(float64(row[cls]-maxv) - math.Log(sum))
	}

	c.probs = tensor.New(probs, tensor.Shape{n, classes})
	c.targets = target
	c.forwarded()
	return scalar(float32(total / float64(n)))
}

// Backward returns (softmax(logits) - onehot(targets)) / batch.
func (c *CrossEntropyLoss) Backward() *tensor.Tensor {
	c.enterBackward()
	n := c.probs.Shape()[0]
	classes := c.probs.Shape()[1]
	grad := c.probs.Clone()
	data := grad.Data()
	inv := 1 / float32(n)
	for i := 0; i < n; i++ {
		cls := int(c.targets.Data()[i])
		data[i*classes+cls] -= 1
	}
	for i := range data {
		data[i] *= inv
	}
	return grad
}
