package tensor

import "github.com/born-ml/tensorgraph/errkind"

// Broadcast implements NumPy-style, right-aligned broadcasting over n
// tensors. Each operand's shape is left-padded with 1s to the maximum rank
// among them; for every axis (from the right) the broadcast extent is the
// first non-1 value across operands, and every other operand at that axis
// must be either 1 or equal to that extent. Broadcast returns n freshly
// allocated tensors of the common shape.
func Broadcast(tensors ...*Tensor) ([]*Tensor, error) {
	if len(tensors) == 0 {
		return nil, errkind.NewArgumentError("no tensors supplied to broadcast")
	}

	rank := maxRank(shapesOf(tensors))
	padded := padShapesRight(shapesOf(tensors), rank)

	broadcastShape := make([]int, rank)
	for axis := 0; axis < rank; axis++ {
		extent := 1
		i := 0
		for ; i < len(tensors); i++ {
			if padded[i][axis] != 1 {
				extent = padded[i][axis]
				break
			}
		}
		for ; i < len(tensors); i++ {
			d := padded[i][axis]
			if d != 1 && d != extent {
				return nil, errkind.NewShapeError(
					"unable to broadcast shapes %v: dimension %d: %d != %d", shapesOf(tensors), axis, d, extent)
			}
		}
		broadcastShape[axis] = extent
	}

	out := make([]*Tensor, len(tensors))
	length := Shape(broadcastShape).NumElements()
	for i, t := range tensors {
		result := Zeros(broadcastShape...)
		for flat := 0; flat < length; flat++ {
			idx := expandedIndices(result.shape, flat)
			result.values[flat] = t.broadcastValue(padded[i], idx)
		}
		out[i] = result
	}
	return out, nil
}

// broadcastValue reads the value at idx from t, treating any axis whose
// padded dimension is 1 as wrapping every index back to 0.
func (t *Tensor) broadcastValue(paddedShape []int, idx []int) float32 {
	flat := idx[0] % paddedShape[0]
	for i := 1; i < len(paddedShape); i++ {
		flat = flat*paddedShape[i] + idx[i]%paddedShape[i]
	}
	return t.values[flat]
}

// IsDimensionsMismatch reports whether any operand's shape differs from the
// first operand's shape.
func IsDimensionsMismatch(tensors ...*Tensor) (bool, error) {
	if len(tensors) == 0 {
		return false, errkind.NewArgumentError("no tensors supplied")
	}
	first := tensors[0].shape
	for _, t := range tensors[1:] {
		if !t.shape.Equal(first) {
			return true, nil
		}
	}
	return false, nil
}

// Unbroadcast sums t along whichever axes (counting from the right) differ
// from target, or which exist in t but have no counterpart in target (t is
// longer). If no such axes exist, t is returned unchanged.
func Unbroadcast(t *Tensor, target Shape) (*Tensor, error) {
	rank := len(t.shape)
	var axes []int
	for i := 0; i < rank; i++ {
		broadcastAxis := rank - i - 1
		targetAxis := len(target) - i - 1

		if targetAxis < 0 {
			axes = append(axes, broadcastAxis)
			continue
		}
		if t.shape[broadcastAxis] != target[targetAxis] {
			axes = append(axes, broadcastAxis)
		}
	}

	if len(axes) == 0 {
		return t, nil
	}
	return AxisSum(t, axes)
}

func shapesOf(tensors []*Tensor) []Shape {
	shapes := make([]Shape, len(tensors))
	for i, t := range tensors {
		shapes[i] = t.shape
	}
	return shapes
}
