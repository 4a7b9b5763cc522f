package graph

import (
	"github.com/born-ml/tensorgraph/errkind"
	"github.com/born-ml/tensorgraph/tensor"
)

// Bindings maps Placeholder nodes to the tensors they should take on for
// one Compute call.
type Bindings map[*Node]*tensor.Tensor

// Compute sorts the nodes of the requested cone, resolves placeholder bindings,
// dispatches a forward task per node in the requested cone, and blocks
// until every task completes. It is idempotent: calling it twice with the
// same bindings and outputs recomputes the same values.
func (g *Graph) Compute(bindings Bindings, outputs ...*Node) error {
	if len(outputs) == 0 {
		return nil
	}

	for _, o := range outputs {
		if !g.owns(o) {
			return errkind.NewArgumentError("output node %d does not belong to this graph", o.ID())
		}
	}

	g.mu.Lock()
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	g.mu.Unlock()

	cone := reachable(outputs)
	topo, err := topoSort(nodes, cone)
	if err != nil {
		return err
	}
	distances := computeDistances(topo)
	sorted := orderByDistance(topo, distances)

	g.mu.Lock()
	g.sortedPlan = sorted
	g.phase = phaseSorted
	g.mu.Unlock()

	// Adjoint contributions and gradients left by an earlier cycle belong to
	// an earlier cone; dropping them keeps Gradient and GetGradient to this one.
	g.results.mu.Lock()
	g.results.adjointContributions = make(map[int64]*Future)
	g.results.gradients = make(map[int64]*tensor.Tensor)
	g.results.mu.Unlock()

	for placeholder, value := range bindings {
		if g.owns(placeholder) {
			g.results.putOutput(placeholder.id, Completed(value, nil))
		}
	}

	for _, n := range sorted {
		n := n
		switch n.kind {
		case KindConstant:
			g.results.putOutput(n.id, Completed(n.constant, nil))
		case KindPlaceholder:
			if _, ok := g.results.outputFuture(n.id); !ok {
				return errkind.NewArgumentError("placeholder %d has no bound value", n.id)
			}
		default:
			g.results.putOutput(n.id, g.pool.Submit(func() (any, error) {
				return forward(n, g.results, g.device)
			}))
		}
	}

	for _, n := range sorted {
		if _, err := g.results.GetOutput(n); err != nil {
			return errkind.NewExecutionError(n.id, err)
		}
	}

	g.mu.Lock()
	g.computedPlan = sorted
	g.outputCount = len(outputs)
	g.phase = phaseComputed
	g.mu.Unlock()

	return nil
}

// Gradient walks the last computed plan in reverse, dispatching a backward
// task per node (end nodes first, with is_end_node = true, then the rest),
// and materializes the gradients map from each node's self-keyed adjoint
// contribution. It fails unless the graph is in the Computed or
// Differentiated state.
func (g *Graph) Gradient() error {
	g.mu.Lock()
	plan := g.computedPlan
	outputCount := g.outputCount
	ph := g.phase
	g.mu.Unlock()

	if ph != phaseComputed && ph != phaseDifferentiated {
		return errkind.NewStateError("gradient called before a successful compute")
	}

	dispatch := func(n *Node, isEnd bool) {
		g.results.putAdjoint(n.id, g.pool.Submit(func() (any, error) {
			return backward(n, g.results, g.device, isEnd)
		}))
	}

	for i := len(plan) - 1; i >= len(plan)-outputCount; i-- {
		dispatch(plan[i], true)
	}
	for i := len(plan) - outputCount - 1; i >= 0; i-- {
		dispatch(plan[i], false)
	}

	for _, n := range plan {
		f, ok := g.results.adjointFuture(n.id)
		if !ok {
			continue
		}
		v, err := f.Get()
		if err != nil {
			return errkind.NewExecutionError(n.id, err)
		}
		contributions := v.(adjointMap)
		if self, ok := contributions[n.id]; ok {
			g.results.setGradient(n.id, self)
		}
	}

	g.mu.Lock()
	g.phase = phaseDifferentiated
	g.mu.Unlock()

	return nil
}
