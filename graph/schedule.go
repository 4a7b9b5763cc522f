package graph

import "github.com/born-ml/tensorgraph/errkind"

// reachable computes the set of nodes reachable from outputs by DFS over
// children, used to restrict execution to the requested cone.
func reachable(outputs []*Node) map[int64]bool {
	seen := make(map[int64]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n.id] {
			return
		}
		seen[n.id] = true
		for _, c := range n.children {
			visit(c)
		}
	}
	for _, o := range outputs {
		visit(o)
	}
	return seen
}

// topoSort returns a post-order DFS traversal of the nodes in cone: a node
// is only appended after every one of its children. A node encountered
// while still on the current DFS path indicates a cycle, reported as a
// graph-shape error (unreachable in practice, since a node's children are
// fixed to already-existing nodes at construction — but the scheduler
// checks it rather than assuming it).
func topoSort(all []*Node, cone map[int64]bool) ([]*Node, error) {
	visiting := make(map[int64]bool, len(cone))
	visited := make(map[int64]bool, len(cone))
	order := make([]*Node, 0, len(cone))

	var visitErr error
	var visit func(n *Node)
	visit = func(n *Node) {
		if visitErr != nil || visited[n.id] {
			return
		}
		if visiting[n.id] {
			visitErr = errkind.NewGraphShapeError("cycle detected at node %d", n.id)
			return
		}
		visiting[n.id] = true
		for _, c := range n.children {
			visit(c)
			if visitErr != nil {
				return
			}
		}
		visiting[n.id] = false
		visited[n.id] = true
		order = append(order, n)
	}

	for _, n := range all {
		if !cone[n.id] {
			continue
		}
		visit(n)
		if visitErr != nil {
			return nil, visitErr
		}
	}
	return order, nil
}

// computeDistances assigns each node a distance d(n) = min over consumers c
// of (d(c) - 1), defaulting to 1 for a consumer whose own distance is not
// yet known (one outside the cone) and to 0 when
// a node has no consumers at all. topo is in leaves-first order, so a
// node's consumers — which, by definition, depend on it — always appear
// later in topo; visiting topo back to front guarantees every consumer's
// distance is already recorded by the time its producer is processed. The
// default-of-1 seed (rather than 0) is ported from the distance recursion
// this was distilled from: it is what makes a requested output, which has
// no consumers within the cone, land on distance 0.
func computeDistances(topo []*Node) map[int64]int {
	distances := make(map[int64]int, len(topo))
	for i := len(topo) - 1; i >= 0; i-- {
		n := topo[i]
		consumers := n.Consumers()
		if len(consumers) == 0 {
			distances[n.id] = 0
			continue
		}

		best := 0
		for j, c := range consumers {
			consumerDistance := 1
			if d, ok := distances[c.id]; ok {
				consumerDistance = d
			}
			candidate := consumerDistance - 1
			if j == 0 || candidate < best {
				best = candidate
			}
		}
		distances[n.id] = best
	}
	return distances
}

// orderByDistance stable-sorts topo ascending by distance so the furthest
// nodes from any output are dispatched first, interleaving disjoint output
// cones to maximize parallel dispatch.
func orderByDistance(topo []*Node, distances map[int64]int) []*Node {
	out := make([]*Node, len(topo))
	copy(out, topo)

	// Insertion sort: stable, and topo is already nearly distance-ordered
	// for the common case of a single output cone.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && distances[out[j-1].id] > distances[out[j].id] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}
