package tensor

import "github.com/born-ml/tensorgraph/errkind"

// AxisSum produces a tensor whose shape equals t.Shape() with every axis in
// axes set to 1, each entry holding the sum of every source element that
// maps to it.
func AxisSum(t *Tensor, axes []int) (*Tensor, error) {
	reduced := make(map[int]bool, len(axes))
	outShape := t.shape.Clone()
	for _, axis := range axes {
		if axis < 0 || axis >= len(outShape) {
			return nil, errkind.NewShapeError("axis %d out of range for shape %v", axis, t.shape)
		}
		outShape[axis] = 1
		reduced[axis] = true
	}

	// out may end up with fewer dimensions than outShape once leading 1s are
	// trimmed at construction; flattenedIndex tolerates the mismatch as long
	// as the trimmed leading entries are all zero, which they are here.
	out := Zeros([]int(outShape)...)

	for flat := 0; flat < t.length; flat++ {
		idx := expandedIndices(t.shape, flat)
		for axis := range reduced {
			idx[axis] = 0
		}
		outFlat, err := flattenedIndex(outShape, idx)
		if err != nil {
			return nil, err
		}
		out.values[outFlat] += t.values[flat]
	}
	return out, nil
}

// Add element-wise adds n tensors, broadcasting them to a common shape
// first.
func Add(tensors ...*Tensor) (*Tensor, error) {
	return elementwise(tensors, 0, func(acc, v float32) float32 { return acc + v })
}

// Mul element-wise multiplies n tensors, broadcasting them to a common
// shape first.
func Mul(tensors ...*Tensor) (*Tensor, error) {
	return elementwise(tensors, 1, func(acc, v float32) float32 { return acc * v })
}

// Sub element-wise subtracts tensors[1:] from tensors[0] (left fold),
// broadcasting them to a common shape first.
func Sub(tensors ...*Tensor) (*Tensor, error) {
	return elementwiseLeftFold(tensors, func(acc, v float32) float32 { return acc - v })
}

// Div element-wise divides tensors[0] by tensors[1:] (left fold),
// broadcasting them to a common shape first.
func Div(tensors ...*Tensor) (*Tensor, error) {
	return elementwiseLeftFold(tensors, func(acc, v float32) float32 { return acc / v })
}

func elementwise(tensors []*Tensor, identity float32, fold func(acc, v float32) float32) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errkind.NewArgumentError("no tensors supplied")
	}
	broadcast, err := Broadcast(tensors...)
	if err != nil {
		return nil, err
	}

	out := Zeros([]int(broadcast[0].shape)...)
	for i := range out.values {
		acc := identity
		for _, b := range broadcast {
			acc = fold(acc, b.values[i])
		}
		out.values[i] = acc
	}
	return out, nil
}

func elementwiseLeftFold(tensors []*Tensor, fold func(acc, v float32) float32) (*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errkind.NewArgumentError("no tensors supplied")
	}
	broadcast, err := Broadcast(tensors...)
	if err != nil {
		return nil, err
	}

	out := Zeros([]int(broadcast[0].shape)...)
	for i := range out.values {
		acc := broadcast[0].values[i]
		for _, b := range broadcast[1:] {
			acc = fold(acc, b.values[i])
		}
		out.values[i] = acc
	}
	return out, nil
}
