// Package graph implements the reverse-mode automatic-differentiation
// engine: node construction and registration, topological-plus-distance
// scheduling, concurrent forward evaluation, and reverse-mode gradient
// accumulation.
package graph

import (
	"sync"

	"github.com/google/uuid"

	"github.com/born-ml/tensorgraph/blas"
	"github.com/born-ml/tensorgraph/blas/cpucompute"
)

// phase is the state of a Graph's compute/gradient cycle.
type phase int

const (
	phaseUnsorted phase = iota
	phaseSorted
	phaseComputed
	phaseDifferentiated
)

// Graph is a registry of nodes together with the scheduling and execution
// state of its most recent compute/gradient cycle. Registering a node
// always reverts the state to Unsorted.
type Graph struct {
	// Tag uniquely identifies the graph across a process, independent of
	// pointer identity, for diagnostics and external session correlation.
	Tag uuid.UUID

	mu    sync.Mutex
	nodes []*Node
	phase phase

	sortedPlan   []*Node
	computedPlan []*Node
	outputCount  int

	device  blas.Device
	pool    *Pool
	results *Results
}

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithDevice overrides the BLAS backend used for MatMul; the default is the
// always-available host-resident cpucompute.Device.
func WithDevice(d blas.Device) GraphOption {
	return func(g *Graph) { g.device = d }
}

// WithPool overrides the worker pool used to dispatch forward and backward
// tasks; the default is a Pool sized to runtime.NumCPU().
func WithPool(p *Pool) GraphOption {
	return func(g *Graph) { g.pool = p }
}

var (
	registryMu sync.Mutex
	registry   []*Graph
	current    *Graph
	defaultG   *Graph
)

// NewGraph creates a graph, registers it process-wide, and returns it. It
// becomes the default graph if none exists yet and the current graph if none
// is set; otherwise call SetCurrent to make it current.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		Tag:     uuid.New(),
		device:  cpucompute.New(),
		results: newResults(),
	}
	g.pool = NewPool()
	for _, opt := range opts {
		opt(g)
	}

	registryMu.Lock()
	registry = append(registry, g)
	if defaultG == nil {
		defaultG = g
	}
	if current == nil {
		current = g
	}
	registryMu.Unlock()

	return g
}

// GetCurrent returns the process-wide current graph, creating a default
// graph if none has been set yet.
func GetCurrent() *Graph {
	registryMu.Lock()
	c := current
	registryMu.Unlock()
	if c != nil {
		return c
	}
	return NewGraph()
}

// GetDefault returns the first graph ever created in this process.
func GetDefault() *Graph {
	registryMu.Lock()
	d := defaultG
	registryMu.Unlock()
	if d != nil {
		return d
	}
	return NewGraph()
}

// SetCurrent makes g the process-wide current graph. Concurrent graph
// construction across goroutines is not supported; the current-graph
// pointer is process-wide mutable state by design.
func SetCurrent(g *Graph) {
	registryMu.Lock()
	current = g
	registryMu.Unlock()
}

// ClearAll drops every registered graph, including the current and default
// pointers. A fresh default graph is created on next use.
func ClearAll() {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, g := range registry {
		g.pool.Shutdown()
	}
	registry = nil
	current = nil
	defaultG = nil
}

func (g *Graph) addNode(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = append(g.nodes, n)
	g.phase = phaseUnsorted
}

// Results returns the graph's results store.
func (g *Graph) Results() *Results { return g.results }

// State reports the graph's current compute/gradient state as a string, for
// diagnostics.
func (g *Graph) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.phase {
	case phaseUnsorted:
		return "unsorted"
	case phaseSorted:
		return "sorted"
	case phaseComputed:
		return "computed"
	case phaseDifferentiated:
		return "differentiated"
	default:
		return "unknown"
	}
}

func (g *Graph) owns(n *Node) bool {
	return n.graph == g
}
