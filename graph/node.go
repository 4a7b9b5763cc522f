package graph

import (
	"sync"
	"sync/atomic"

	"github.com/born-ml/tensorgraph/tensor"
)

// Kind identifies which tagged variant a Node is.
type Kind int

const (
	// KindConstant nodes hold an immutable tensor payload.
	KindConstant Kind = iota
	// KindPlaceholder nodes receive their value per Compute call via a
	// binding map.
	KindPlaceholder
	// KindAdd nodes compute the element-wise, n-ary sum of their children.
	KindAdd
	// KindMul nodes compute the element-wise, n-ary product of their
	// children.
	KindMul
	// KindMatMul nodes compute a two-operand matrix product, optionally
	// reading either operand transposed.
	KindMatMul
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindPlaceholder:
		return "Placeholder"
	case KindAdd:
		return "Add"
	case KindMul:
		return "Mul"
	case KindMatMul:
		return "MatMul"
	default:
		return "Unknown"
	}
}

var nextNodeID atomic.Int64

// Node is a tagged variant of the computational graph: Constant,
// Placeholder, Add, Mul, or MatMul. Children are fixed at construction, so
// the graph they form is acyclic by construction — a node can only refer to
// already-existing nodes.
type Node struct {
	id    int64
	kind  Kind
	graph *Graph

	children []*Node

	consumersMu sync.Mutex
	consumers   []*Node

	// Constant payload.
	constant *tensor.Tensor

	// MatMul flags.
	aTranspose bool
	bTranspose bool
}

// ID returns the node's stable, monotonically assigned identifier.
func (n *Node) ID() int64 { return n.id }

// Kind returns the node's tagged variant.
func (n *Node) Kind() Kind { return n.kind }

// Children returns the node's inputs in definition order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Consumers returns the nodes that registered this node as a child, in the
// order they were registered.
func (n *Node) Consumers() []*Node {
	n.consumersMu.Lock()
	defer n.consumersMu.Unlock()
	out := make([]*Node, len(n.consumers))
	copy(out, n.consumers)
	return out
}

func (n *Node) addConsumer(consumer *Node) {
	n.consumersMu.Lock()
	defer n.consumersMu.Unlock()
	n.consumers = append(n.consumers, consumer)
}

func newNode(kind Kind, children []*Node) *Node {
	n := &Node{
		id:       nextNodeID.Add(1),
		kind:     kind,
		children: children,
	}
	register(n)
	return n
}

// register appends n to the current graph's node list and, for each of its
// children, appends n to that child's consumer list. Registration clears
// the current graph's sorted flag.
func register(n *Node) {
	g := GetCurrent()
	n.graph = g
	g.addNode(n)
	for _, c := range n.children {
		c.addConsumer(n)
	}
}

// NewConstant creates a node with an immutable tensor payload.
func NewConstant(t *tensor.Tensor) *Node {
	n := newNode(KindConstant, nil)
	n.constant = t
	return n
}

// NewConstantScalar creates a Constant node wrapping a single scalar value.
func NewConstantScalar(v float32) *Node {
	t := tensor.Zeros(1)
	t.Fill(v)
	return NewConstant(t)
}

// NewPlaceholder creates a node whose value is supplied per Compute call.
func NewPlaceholder() *Node {
	return newNode(KindPlaceholder, nil)
}

// NewAdd creates an element-wise, n-ary addition node.
func NewAdd(children ...*Node) *Node {
	return newNode(KindAdd, children)
}

// NewMul creates an element-wise, n-ary multiplication node.
func NewMul(children ...*Node) *Node {
	return newNode(KindMul, children)
}

// NewMatMul creates a two-operand matrix multiplication node. aTranspose
// and bTranspose select whether each operand is read transposed.
func NewMatMul(aTranspose, bTranspose bool, a, b *Node) *Node {
	n := newNode(KindMatMul, []*Node{a, b})
	n.aTranspose = aTranspose
	n.bTranspose = bTranspose
	return n
}
