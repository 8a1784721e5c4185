package tensor

import "fmt"

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float32 {
	var sum float32
	for _, v := range t.data {
		sum += v
	}
	return sum
}

// Mean returns the mean of all elements.
func (t *Tensor) Mean() float32 {
	return t.Sum() / float32(len(t.data))
}

// Max returns the maximum element.
func (t *Tensor) Max() float32 {
	best := t.data[0]
	for _, v := range t.data[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// reducedShape returns the output shape for a reduction over axes,
// with reduced dimensions kept as size 1 (squeezed later if requested).
func (t *Tensor) reducedShape(axes []int) (Shape, []bool) {
	reduced := make([]bool, len(t.shape))
	for _, a := range axes {
		if a < 0 {
			a += len(t.shape)
		}
		if a < 0 || a >= len(t.shape) {
			panic(fmt.Sprintf("reduce: axis %d out of range for shape %v", a, t.shape))
		}
		reduced[a] = true
	}
	out := t.shape.Clone()
	for i, r := range reduced {
		if r {
			out[i] = 1
		}
	}
	return out, reduced
}

func squeezeAxes(s Shape, reduced []bool) Shape {
	out := make(Shape, 0, len(s))
	for i, dim := range s {
		if !reduced[i] {
			out = append(out, dim)
		}
	}
	if len(out) == 0 {
		out = Shape{1}
	}
	return out
}

// SumAxes sums over the given axes. Negative axes count from the end.
// With keepDims the reduced dimensions remain as size 1, which makes
// the result broadcastable against the input.
func (t *Tensor) SumAxes(axes []int, keepDims bool) *Tensor {
	keptShape, reduced := t.reducedShape(axes)
	out := Zeros(keptShape)

	inStrides := t.shape.Strides()
	outStrides := keptShape.Strides()
	for i, s := range outStrides {
		if reduced[i] {
			outStrides[i] = 0
		} else {
			outStrides[i] = s
		}
	}

	for i, v := range t.data {
		rem := i
		outIdx := 0
		for d := 0; d < len(inStrides); d++ {
			coord := rem / inStrides[d]
			rem %= inStrides[d]
			outIdx += coord * outStrides[d]
		}
		out.data[outIdx] += v
	}

	if !keepDims {
		out.shape = squeezeAxes(keptShape, reduced)
	}
	return out
}

// MeanAxes computes the mean over the given axes.
func (t *Tensor) MeanAxes(axes []int, keepDims bool) *Tensor {
	sum := t.SumAxes(axes, keepDims)
	n := float32(t.NumElements()) / float32(sum.NumElements())
	for i := range sum.data {
		sum.data[i] /= n
	}
	return sum
}

// VarAxes computes the variance over the given axes with the given
// delta degrees of freedom (ddof=0 for population variance, 1 for the
// sample variance used by batchnorm running statistics).
func (t *Tensor) VarAxes(axes []int, ddof int, keepDims bool) *Tensor {
	mean := t.MeanAxes(axes, true)
	diff := t.Sub(mean)
	sq := diff.Mul(diff)
	sum := sq.SumAxes(axes, keepDims)
	n := float32(t.NumElements())/float32(sum.NumElements()) - float32(ddof)
	for i := range sum.data {
		sum.data[i] /= n
	}
	return sum
}

// MaxAxis computes the maximum over a single axis.
func (t *Tensor) MaxAxis(axis int, keepDims bool) *Tensor {
	if axis < 0 {
		axis += len(t.shape)
	}
	keptShape, reduced := t.reducedShape([]int{axis})
	out := Full(keptShape, negInf)

	inStrides := t.shape.Strides()
	outStrides := keptShape.Strides()
	outStrides[axis] = 0

	for i, v := range t.data {
		rem := i
		outIdx := 0
		for d := 0; d < len(inStrides); d++ {
			coord := rem / inStrides[d]
			rem %= inStrides[d]
			outIdx += coord * outStrides[d]
		}
		if v > out.data[outIdx] {
			out.data[outIdx] = v
		}
	}

	if !keepDims {
		out.shape = squeezeAxes(keptShape, reduced)
	}
	return out
}

const negInf = float32(-3.4028235e38)

// ArgmaxAxis returns the index of the maximum along the given axis,
// with that axis removed from the shape. Indices are stored as float32
// values (the framework carries a single dtype).
func (t *Tensor) ArgmaxAxis(axis int) *Tensor {
	if axis < 0 {
		axis += len(t.shape)
	}
	if axis < 0 || axis >= len(t.shape) {
		panic(fmt.Sprintf("argmax: axis %d out of range for shape %v", axis, t.shape))
	}

	keptShape, reduced := t.reducedShape([]int{axis})
	best := Full(keptShape, negInf)
	out := Zeros(keptShape)

	inStrides := t.shape.Strides()
	outStrides := keptShape.Strides()
	outStrides[axis] = 0

	for i, v := range t.data {
		rem := i
		outIdx := 0
		coordAxis := 0
		for d := 0; d < len(inStrides); d++ {
			coord := rem / inStrides[d]
			rem %= inStrides[d]
			if d == axis {
				coordAxis = coord
			}
			outIdx += coord * outStrides[d]
		}
		if v > best.data[outIdx] {
			best.data[outIdx] = v
			out.data[outIdx] = float32(coordAxis)
		}
	}

	out.shape = squeezeAxes(keptShape, reduced)
	return out
}
