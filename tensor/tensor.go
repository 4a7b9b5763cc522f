package tensor

import (
	"fmt"
	"strings"

	"github.com/born-ml/tensorgraph/errkind"
)

// DeviceBuffer is the opaque handle a Tensor holds into the external BLAS
// backend once it has been allocated on-device. It is nil until SetBuffer
// records one; the Tensor never allocates or releases it itself, so owner
// code releases it explicitly.
type DeviceBuffer any

// Tensor is a row-major dense n-dimensional array of 32-bit floats.
//
// Shape and length are immutable after construction: a Tensor never
// resizes. Leading dimensions of size 1 are trimmed at construction time, so
// a Tensor built with shape [1,1,3] is structurally identical to one built
// with shape [3].
type Tensor struct {
	shape  Shape
	length int
	values []float32
	buffer DeviceBuffer
}

// Builder constructs a Tensor from a required shape and optional values.
type Builder struct {
	shape  Shape
	values []float32
	err    error
}

// NewBuilder starts building a Tensor with the given row-major shape.
func NewBuilder(shape ...int) *Builder {
	s := Shape(append([]int(nil), shape...))
	if err := s.validate(); err != nil {
		return &Builder{err: err}
	}
	return &Builder{shape: s}
}

// WithValues sets the backing values of the tensor under construction. The
// builder keeps only the first NumElements() entries if more are supplied;
// supplying fewer is an error raised at Build time.
func (b *Builder) WithValues(values ...float32) *Builder {
	b.values = values
	return b
}

// Build finalizes the tensor. If no values were supplied, the tensor is
// zero-filled.
func (b *Builder) Build() (*Tensor, error) {
	if b.err != nil {
		return nil, b.err
	}

	trimmed := trimLeadingOnes(b.shape)
	length := trimmed.NumElements()

	var values []float32
	if b.values == nil {
		values = make([]float32, length)
	} else {
		if len(b.values) < length {
			return nil, errkind.NewArgumentError(
				"not enough values for shape %v: got %d, need %d", trimmed, len(b.values), length)
		}
		values = make([]float32, length)
		copy(values, b.values[:length])
	}

	return &Tensor{shape: trimmed, length: length, values: values}, nil
}

// Zeros builds a zero-filled tensor of the given shape, panicking only if
// shape itself is malformed (a programmer error, not caller input in the
// normal sense since every other constructor in this package routes through
// the same validation).
func Zeros(shape ...int) *Tensor {
	t, err := NewBuilder(shape...).Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Ones builds a tensor of the given shape filled with 1.
func Ones(shape ...int) *Tensor {
	t := Zeros(shape...)
	for i := range t.values {
		t.values[i] = 1
	}
	return t
}

// Shape returns the tensor's row-major dimensions.
func (t *Tensor) Shape() Shape { return t.shape }

// Length returns the number of elements in the tensor.
func (t *Tensor) Length() int { return t.length }

// Values returns the tensor's backing values in row-major order. Callers
// must not retain the slice across a Set/Fill/Increment call on t.
func (t *Tensor) Values() []float32 { return t.values }

// Buffer returns the tensor's device buffer handle, or nil if none has been
// allocated.
func (t *Tensor) Buffer() DeviceBuffer { return t.buffer }

// SetBuffer records buf as this tensor's device buffer handle.
func (t *Tensor) SetBuffer(buf DeviceBuffer) { t.buffer = buf }

// Get returns the value at the given per-axis indices.
func (t *Tensor) Get(indices ...int) (float32, error) {
	flat, err := flattenedIndex(t.shape, indices)
	if err != nil {
		return 0, err
	}
	return t.values[flat], nil
}

// Set assigns value at the given per-axis indices.
func (t *Tensor) Set(value float32, indices ...int) error {
	flat, err := flattenedIndex(t.shape, indices)
	if err != nil {
		return err
	}
	t.values[flat] = value
	return nil
}

// Increment adds value to the entry at the given per-axis indices.
func (t *Tensor) Increment(value float32, indices ...int) error {
	flat, err := flattenedIndex(t.shape, indices)
	if err != nil {
		return err
	}
	t.values[flat] += value
	return nil
}

// Fill overwrites every value in the tensor with value.
func (t *Tensor) Fill(value float32) {
	for i := range t.values {
		t.values[i] = value
	}
}

// Equal reports whether t and other have identical shape and values.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil {
		return false
	}
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.values {
		if t.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t, without a device buffer.
func (t *Tensor) Clone() *Tensor {
	values := make([]float32, len(t.values))
	copy(values, t.values)
	return &Tensor{shape: t.shape.Clone(), length: t.length, values: values}
}

// String renders the tensor's shape and values for debugging.
func (t *Tensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<Tensor shape=%v>%v", []int(t.shape), t.values)
	return b.String()
}
