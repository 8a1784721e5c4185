package tensor

import "fmt"

// Reshape returns a view-like copy of the tensor with a new shape.
// One dimension may be -1 and is inferred from the element count.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := make(Shape, len(dims))
	copy(shape, dims)

	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1:
			if infer >= 0 {
				panic("reshape: at most one dimension may be -1")
			}
			infer = i
		case d <= 0:
			panic(fmt.Sprintf("reshape: invalid dimension %d", d))
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if len(t.data)%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension for %d elements with shape %v", len(t.data), shape))
		}
		shape[infer] = len(t.data) / known
		known *= shape[infer]
	}
	if known != len(t.data) {
		panic(fmt.Sprintf("reshape: shape %v requires %d elements, tensor has %d", shape, known, len(t.data)))
	}

	buf := make([]float32, len(t.data))
	copy(buf, t.data)
	return &Tensor{data: buf, shape: shape}
}

// Flatten2D reshapes the tensor to [shape[0], rest], the layout expected
// by Linear after convolutional blocks.
func (t *Tensor) Flatten2D() *Tensor {
	if t.Dims() < 2 {
		panic(fmt.Sprintf("flatten: need at least 2 dimensions, got shape %v", t.shape))
	}
	return t.Reshape(t.shape[0], -1)
}

// Row returns a copy of row i of a 2D tensor as a [1, n] tensor.
func (t *Tensor) Row(i int) *Tensor {
	if t.Dims() != 2 {
		panic(fmt.Sprintf("row: only 2D tensors supported, got shape %v", t.shape))
	}
	n := t.shape[1]
	buf := make([]float32, n)
	copy(buf, t.data[i*n:(i+1)*n])
	return &Tensor{data: buf, shape: Shape{1, n}}
}

// Gather selects rows from a 2D table by index.
//
//	table: [rows, cols], indices: any shape with integer values
//
// The result has shape indices.Shape() + [cols].
func Gather(table, indices *Tensor) *Tensor {
	if table.Dims() != 2 {
		panic(fmt.Sprintf("gather: table must be 2D, got shape %v", table.shape))
	}
	rows, cols := table.shape[0], table.shape[1]

	outShape := append(indices.shape.Clone(), cols)
	out := Zeros(outShape)
	for i, v := range indices.data {
		row := int(v)
		if row < 0 || row >= rows {
			panic(fmt.Sprintf("gather: index %d out of range [0, %d)", row, rows))
		}
		copy(out.data[i*cols:(i+1)*cols], table.data[row*cols:(row+1)*cols])
	}
	return out
}

// Stack concatenates equally shaped tensors along a new leading axis.
func Stack(tensors []*Tensor) *Tensor {
	if len(tensors) == 0 {
		panic("stack: no tensors given")
	}
	shape := tensors[0].shape
	for _, t := range tensors[1:] {
		if !t.shape.Equal(shape) {
			panic(fmt.Sprintf("stack: shape mismatch %v vs %v", shape, t.shape))
		}
	}
	out := Zeros(append(Shape{len(tensors)}, shape.Clone()...))
	step := shape.NumElements()
	for i, t := range tensors {
		copy(out.data[i*step:(i+1)*step], t.data)
	}
	return out
}
