package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensorgraph/tensor"
)

func TestZerosTrimsLeadingOnes(t *testing.T) {
	zt := tensor.Zeros(1, 1, 3)
	assert.Equal(t, tensor.Shape{3}, zt.Shape())
	assert.Equal(t, 3, zt.Length())
}

func TestLeadingOnesEquality(t *testing.T) {
	a, err := tensor.NewBuilder(1, 1, 3).WithValues(1, 2, 3).Build()
	require.NoError(t, err)
	b, err := tensor.NewBuilder(3).WithValues(1, 2, 3).Build()
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestLastDimensionNeverTrimmed(t *testing.T) {
	zt := tensor.Zeros(1)
	assert.Equal(t, tensor.Shape{1}, zt.Shape())
}

func TestBuildRejectsEmptyShape(t *testing.T) {
	_, err := tensor.NewBuilder().Build()
	assert.Error(t, err)
}

func TestBuildRejectsTooFewValues(t *testing.T) {
	_, err := tensor.NewBuilder(2, 2).WithValues(1, 2).Build()
	assert.Error(t, err)
}

func TestBuildKeepsOnlyNeededValues(t *testing.T) {
	tt, err := tensor.NewBuilder(2).WithValues(1, 2, 3, 4).Build()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, tt.Values())
}

func TestGetSetIncrement(t *testing.T) {
	tt := tensor.Zeros(2, 3)
	require.NoError(t, tt.Set(5, 0, 1))
	v, err := tt.Get(0, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)

	require.NoError(t, tt.Increment(2, 0, 1))
	v, _ = tt.Get(0, 1)
	assert.Equal(t, float32(7), v)
}

func TestGetRejectsNegativeIndex(t *testing.T) {
	tt := tensor.Zeros(2, 3)
	_, err := tt.Get(-1, 0)
	assert.Error(t, err)
}

func TestBroadcastCommutative(t *testing.T) {
	a, _ := tensor.NewBuilder(2, 3).WithValues(1, 2, 3, 4, 5, 6).Build()
	b, _ := tensor.NewBuilder(1, 3).WithValues(1, 2, 3).Build()

	ab, err := tensor.Broadcast(a, b)
	require.NoError(t, err)
	ba, err := tensor.Broadcast(b, a)
	require.NoError(t, err)

	assert.True(t, ab[0].Equal(ba[1]))
	assert.True(t, ab[1].Equal(ba[0]))
}

func TestBroadcastIncompatibleShapesFail(t *testing.T) {
	a := tensor.Zeros(2, 3)
	b := tensor.Zeros(2, 4)
	_, err := tensor.Broadcast(a, b)
	assert.Error(t, err)
}

func TestUnbroadcastIdentityWhenShapesMatch(t *testing.T) {
	tt := tensor.Zeros(2, 3)
	out, err := tensor.Unbroadcast(tt, tt.Shape())
	require.NoError(t, err)
	assert.Same(t, tt, out)
}

func TestUnbroadcastSumsReplicatedAxes(t *testing.T) {
	small, err := tensor.NewBuilder(1, 1, 2).WithValues(1, 2).Build()
	require.NoError(t, err)

	broadcasted, err := tensor.Broadcast(small, tensor.Zeros(3, 3, 2))
	require.NoError(t, err)

	reduced, err := tensor.Unbroadcast(broadcasted[0], small.Shape())
	require.NoError(t, err)

	assert.Equal(t, float32(9), reduced.Values()[0])
	assert.Equal(t, float32(18), reduced.Values()[1])
}

func TestIsDimensionsMismatch(t *testing.T) {
	a := tensor.Zeros(2, 3)
	b := tensor.Zeros(2, 3)
	c := tensor.Zeros(3, 2)

	mismatch, err := tensor.IsDimensionsMismatch(a, b)
	require.NoError(t, err)
	assert.False(t, mismatch)

	mismatch, err = tensor.IsDimensionsMismatch(a, c)
	require.NoError(t, err)
	assert.True(t, mismatch)
}

func TestAxisSumRejectsOutOfRangeAxis(t *testing.T) {
	tt := tensor.Zeros(2, 3)
	_, err := tensor.AxisSum(tt, []int{5})
	assert.Error(t, err)
}

func TestElementWiseMultiplicationWithBroadcasting(t *testing.T) {
	a, _ := tensor.NewBuilder(2, 3).WithValues(3, 8, 2, 5, 1, 6).Build()
	b, _ := tensor.NewBuilder(1, 3).WithValues(3, 2, 1).Build()

	c, err := tensor.Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 16, 2, 15, 2, 6}, c.Values())
}

func TestElementWiseAdditionWithBroadcasting(t *testing.T) {
	a, _ := tensor.NewBuilder(2, 3).WithValues(3, 8, 2, 5, 1, 6).Build()
	b, _ := tensor.NewBuilder(1, 3).WithValues(3, 2, 1).Build()

	c, err := tensor.Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 10, 3, 8, 3, 7}, c.Values())
}

func TestSubDivLeftFold(t *testing.T) {
	a := tensor.Zeros(1)
	a.Fill(10)
	b := tensor.Zeros(1)
	b.Fill(4)
	c := tensor.Zeros(1)
	c.Fill(2)

	sub, err := tensor.Sub(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, sub.Values())

	div, err := tensor.Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{2.5}, div.Values())
}

func TestElementwiseRejectsEmptyInput(t *testing.T) {
	_, err := tensor.Add()
	assert.Error(t, err)
	_, err = tensor.Mul()
	assert.Error(t, err)
}

func TestOnes(t *testing.T) {
	o := tensor.Ones(2, 2)
	assert.Equal(t, []float32{1, 1, 1, 1}, o.Values())
}
