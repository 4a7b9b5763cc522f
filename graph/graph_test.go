package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensorgraph/graph"
	"github.com/born-ml/tensorgraph/tensor"
)

func newScalar(v float32) *tensor.Tensor {
	t := tensor.Zeros(1)
	t.Fill(v)
	return t
}

func mustBuild(t *testing.T, shape []int, values ...float32) *tensor.Tensor {
	tt, err := tensor.NewBuilder(shape...).WithValues(values...).Build()
	require.NoError(t, err)
	return tt
}

func freshGraph(t *testing.T) *graph.Graph {
	g := graph.NewGraph()
	graph.SetCurrent(g)
	t.Cleanup(func() { graph.SetCurrent(graph.GetDefault()) })
	return g
}

// TestElementWiseMultiplicationWithBroadcasting mirrors the worked example:
// a = [[3,8,2],[5,1,6]] (2x3), b = [[3,2,1]] (1x3), c = a * b.
func TestElementWiseMultiplicationWithBroadcasting(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(mustBuild(t, []int{2, 3}, 3, 8, 2, 5, 1, 6))
	b := graph.NewConstant(mustBuild(t, []int{1, 3}, 3, 2, 1))
	c := graph.NewMul(a, b)

	require.NoError(t, g.Compute(nil, c))
	out, err := g.Results().GetOutput(c)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 16, 2, 15, 2, 6}, out.Values())

	require.NoError(t, g.Gradient())
	gradA, ok := g.Results().GetGradient(a)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 2, 1, 3, 2, 1}, gradA.Values())

	gradB, ok := g.Results().GetGradient(b)
	require.True(t, ok)
	assert.Equal(t, []float32{8, 9, 8}, gradB.Values())
}

// TestAdditionWithBroadcasting mirrors the second worked example.
func TestAdditionWithBroadcasting(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(mustBuild(t, []int{2, 3}, 3, 8, 2, 5, 1, 6))
	b := graph.NewConstant(mustBuild(t, []int{1, 3}, 3, 2, 1))
	c := graph.NewAdd(a, b)

	require.NoError(t, g.Compute(nil, c))
	require.NoError(t, g.Gradient())

	gradA, _ := g.Results().GetGradient(a)
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, gradA.Values())

	gradB, _ := g.Results().GetGradient(b)
	assert.Equal(t, []float32{2, 2, 2}, gradB.Values())
}

// TestChainedOps mirrors: a=2, b=1, one=1, c=a+b, d=b+one, e=c*d.
func TestChainedOps(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(newScalar(2))
	b := graph.NewConstant(newScalar(1))
	one := graph.NewConstant(newScalar(1))
	c := graph.NewAdd(a, b)
	d := graph.NewAdd(b, one)
	e := graph.NewMul(c, d)

	require.NoError(t, g.Compute(nil, e))
	out, err := g.Results().GetOutput(e)
	require.NoError(t, err)
	assert.Equal(t, []float32{6}, out.Values())

	require.NoError(t, g.Gradient())
	gradA, _ := g.Results().GetGradient(a)
	assert.Equal(t, []float32{2}, gradA.Values())
	gradB, _ := g.Results().GetGradient(b)
	assert.Equal(t, []float32{5}, gradB.Values())
}

// TestMatMulUntransposed mirrors the worked matmul example.
func TestMatMulUntransposed(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(mustBuild(t, []int{2, 3}, 2, 1, 4, 0, 1, 1))
	b := graph.NewConstant(mustBuild(t, []int{3, 4}, 6, 3, -1, 0, 1, 1, 0, 4, -2, 5, 0, 2))
	c := graph.NewMatMul(false, false, a, b)

	require.NoError(t, g.Compute(nil, c))
	out, err := g.Results().GetOutput(c)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 27, -2, 12, -1, 6, 0, 6}, out.Values())

	require.NoError(t, g.Gradient())
	gradA, _ := g.Results().GetGradient(a)
	assert.Equal(t, []float32{8, 6, 5, 8, 6, 5}, gradA.Values())
	gradB, _ := g.Results().GetGradient(b)
	assert.Equal(t, []float32{2, 2, 2, 2, 2, 2, 2, 2, 5, 5, 5, 5}, gradB.Values())
}

// TestMatMulATransposed mirrors the "A transposed" variant: A' is the 3x2
// physical transpose of A, B and C are unchanged from TestMatMulUntransposed.
func TestMatMulATransposed(t *testing.T) {
	g := freshGraph(t)

	aT := graph.NewConstant(mustBuild(t, []int{3, 2}, 2, 0, 1, 1, 4, 1))
	b := graph.NewConstant(mustBuild(t, []int{3, 4}, 6, 3, -1, 0, 1, 1, 0, 4, -2, 5, 0, 2))
	c := graph.NewMatMul(true, false, aT, b)

	require.NoError(t, g.Compute(nil, c))
	out, err := g.Results().GetOutput(c)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 27, -2, 12, -1, 6, 0, 6}, out.Values())

	require.NoError(t, g.Gradient())
	gradAT, _ := g.Results().GetGradient(aT)
	assert.Equal(t, []float32{8, 8, 6, 6, 5, 5}, gradAT.Values())
	gradB, _ := g.Results().GetGradient(b)
	assert.Equal(t, []float32{2, 2, 2, 2, 2, 2, 2, 2, 5, 5, 5, 5}, gradB.Values())
}

// TestSeparateTreesInOneGraph checks two disjoint addition subgraphs,
// computed together, don't cross-contaminate.
func TestSeparateTreesInOneGraph(t *testing.T) {
	g := freshGraph(t)

	a1 := graph.NewConstant(newScalar(1))
	a2 := graph.NewConstant(newScalar(2))
	x := graph.NewAdd(a1, a2)

	b1 := graph.NewConstant(newScalar(10))
	b2 := graph.NewConstant(newScalar(20))
	y := graph.NewAdd(b1, b2)

	require.NoError(t, g.Compute(nil, x, y))

	xOut, _ := g.Results().GetOutput(x)
	assert.Equal(t, []float32{3}, xOut.Values())
	yOut, _ := g.Results().GetOutput(y)
	assert.Equal(t, []float32{30}, yOut.Values())

	require.NoError(t, g.Gradient())
	gradA1, _ := g.Results().GetGradient(a1)
	assert.Equal(t, []float32{1}, gradA1.Values())
	gradB1, _ := g.Results().GetGradient(b1)
	assert.Equal(t, []float32{1}, gradB1.Values())
}

// TestUnusedNodesSortOut checks that an unrelated node Z referencing some of
// X's children is excluded from the cone computed for {X, Y}: Z is never
// evaluated, while X and Y are.
func TestUnusedNodesSortOut(t *testing.T) {
	g := freshGraph(t)

	leaf1 := graph.NewConstant(newScalar(1))
	leaf2 := graph.NewConstant(newScalar(2))
	x := graph.NewAdd(leaf1, leaf2)
	y := graph.NewConstant(newScalar(5))
	z := graph.NewAdd(leaf1, leaf2) // Unrelated to the {x, y} cone requested below.

	require.NoError(t, g.Compute(nil, x, y))

	xOut, err := g.Results().GetOutput(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, xOut.Values())

	_, err = g.Results().GetOutput(z)
	assert.Error(t, err)
}

// TestPlaceholderBinding checks a placeholder takes its bound value.
func TestPlaceholderBinding(t *testing.T) {
	g := freshGraph(t)

	p := graph.NewPlaceholder()
	c := graph.NewConstant(newScalar(3))
	sum := graph.NewAdd(p, c)

	err := g.Compute(graph.Bindings{p: newScalar(4)}, sum)
	require.NoError(t, err)

	out, err := g.Results().GetOutput(sum)
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, out.Values())
}

// TestComputeIsIdempotent checks calling Compute twice with the same
// bindings on the same graph yields the same output.
func TestComputeIsIdempotent(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(newScalar(2))
	b := graph.NewConstant(newScalar(3))
	c := graph.NewMul(a, b)

	require.NoError(t, g.Compute(nil, c))
	first, _ := g.Results().GetOutput(c)

	require.NoError(t, g.Compute(nil, c))
	second, _ := g.Results().GetOutput(c)

	assert.Equal(t, first.Values(), second.Values())
}

// TestGradientBeforeComputeFails checks the state machine rejects Gradient
// before a successful Compute.
func TestGradientBeforeComputeFails(t *testing.T) {
	g := freshGraph(t)
	assert.Error(t, g.Gradient())
}

// TestGradientUnreachableNodeReturnsNothing checks a node outside the last
// forward cone has no gradient recorded.
func TestGradientUnreachableNodeReturnsNothing(t *testing.T) {
	g := freshGraph(t)

	leaf1 := graph.NewConstant(newScalar(1))
	leaf2 := graph.NewConstant(newScalar(2))
	x := graph.NewAdd(leaf1, leaf2)
	unrelatedLeaf := graph.NewConstant(newScalar(9))
	unrelated := graph.NewAdd(unrelatedLeaf, unrelatedLeaf)
	_ = unrelated

	require.NoError(t, g.Compute(nil, x))
	require.NoError(t, g.Gradient())

	_, ok := g.Results().GetGradient(unrelatedLeaf)
	assert.False(t, ok)
}

// TestMulBackwardDivByZeroUnguarded checks the multiplication backward rule
// divides self.output by the zero-valued child's own output without a
// guard, as ported from the source the formula was distilled from: the
// gradient of the zero child comes out NaN (0/0) rather than the true
// value, while the other child's gradient is unaffected since its own
// output is nonzero.
func TestMulBackwardDivByZeroUnguarded(t *testing.T) {
	g := freshGraph(t)

	a := graph.NewConstant(newScalar(0))
	b := graph.NewConstant(newScalar(5))
	c := graph.NewMul(a, b)

	require.NoError(t, g.Compute(nil, c))
	require.NoError(t, g.Gradient())

	gradA, ok := g.Results().GetGradient(a)
	require.True(t, ok)
	assert.True(t, isNaN(gradA.Values()[0]))

	gradB, ok := g.Results().GetGradient(b)
	require.True(t, ok)
	assert.Equal(t, []float32{0}, gradB.Values())
}

func isNaN(v float32) bool {
	return v != v
}
