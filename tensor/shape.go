package tensor

import "github.com/born-ml/tensorgraph/errkind"

// Shape is the row-major dimension list of a Tensor.
type Shape []int

// NumElements returns the product of the shape's dimensions.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether s and other have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) validate() error {
	if len(s) == 0 {
		return errkind.NewArgumentError("cannot have a tensor with no dimensions")
	}
	for i, d := range s {
		if d <= 0 {
			return errkind.NewShapeError("invalid dimension at index %d: %d (must be > 0)", i, d)
		}
	}
	return nil
}

// trimLeadingOnes strips leading dimensions equal to 1, always retaining at
// least the last dimension. [1,1,3] becomes [3]; [1] stays [1].
func trimLeadingOnes(shape Shape) Shape {
	leading := 0
	for i := 0; i < len(shape)-1; i++ {
		if shape[i] != 1 {
			break
		}
		leading++
	}
	trimmed := make(Shape, len(shape)-leading)
	copy(trimmed, shape[leading:])
	return trimmed
}

// expandedIndices computes the per-axis indices for a flat row-major index
// into shape. Mirrors the original source's getExpandedIndices: looped from
// the last axis backward, dividing out the running product.
func expandedIndices(shape Shape, index int) []int {
	indices := make([]int, len(shape))
	product := 1
	for j := len(shape) - 1; j >= 0; j-- {
		indices[j] = (index / product) % shape[j]
		product *= shape[j]
	}
	return indices
}

// flattenedIndex computes the row-major flat index for indices into shape.
// Extra leading entries in indices (beyond len(shape)) are tolerated as long
// as they are all zero; negative indices are rejected.
func flattenedIndex(shape Shape, indices []int) (int, error) {
	for _, idx := range indices {
		if idx < 0 {
			return 0, errkind.NewShapeError("index cannot be negative: %v", indices)
		}
	}

	diff := len(indices) - len(shape)
	start := 0
	if diff > 0 {
		start = diff
		for i := 0; i < diff; i++ {
			if indices[i] != 0 {
				return 0, errkind.NewShapeError("leading indices must be zero: %v", indices)
			}
		}
	} else if diff < 0 {
		return 0, errkind.NewShapeError("not enough indices for shape %v: %v", shape, indices)
	}

	flat := indices[start]
	for i := 1; i < len(shape); i++ {
		flat = flat*shape[i] + indices[start+i]
	}
	return flat, nil
}

// padShapesRight left-pads every shape with 1s so all have rank maxRank.
func padShapesRight(shapes []Shape, maxRank int) [][]int {
	padded := make([][]int, len(shapes))
	for i, s := range shapes {
		p := make([]int, maxRank)
		for j := range p {
			p[j] = 1
		}
		copy(p[maxRank-len(s):], s)
		padded[i] = p
	}
	return padded
}

func maxRank(shapes []Shape) int {
	m := 0
	for _, s := range shapes {
		if len(s) > m {
			m = len(s)
		}
	}
	return m
}
