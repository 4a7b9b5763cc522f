package graph

import (
	"sync"

	"github.com/born-ml/tensorgraph/errkind"
	"github.com/born-ml/tensorgraph/tensor"
)

// adjointMap is a node's contribution to each of its children's gradients,
// keyed by child id, plus an entry keyed by the node's own id holding the
// incoming delta itself.
type adjointMap map[int64]*tensor.Tensor

// Results is keyed by node id and holds futures for per-node forward
// outputs, futures for per-node per-child adjoint contributions, and the
// final reduced gradient per node. Per-key writes happen once, before any
// future is read; reads happen only after that key's producing task has
// completed, so a concurrent map needs no locking beyond what Go's map type
// already requires for concurrent access — a mutex guards the map
// structure itself, not the futures it holds.
type Results struct {
	mu sync.RWMutex

	outputs              map[int64]*Future
	adjointContributions map[int64]*Future
	gradients            map[int64]*tensor.Tensor
}

func newResults() *Results {
	return &Results{
		outputs:              make(map[int64]*Future),
		adjointContributions: make(map[int64]*Future),
		gradients:            make(map[int64]*tensor.Tensor),
	}
}

func (r *Results) putOutput(id int64, f *Future) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[id] = f
}

func (r *Results) outputFuture(id int64) (*Future, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.outputs[id]
	return f, ok
}

func (r *Results) putAdjoint(id int64, f *Future) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjointContributions[id] = f
}

func (r *Results) adjointFuture(id int64) (*Future, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.adjointContributions[id]
	return f, ok
}

func (r *Results) setGradient(id int64, t *tensor.Tensor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gradients[id] = t
}

// GetOutput returns the forward value of n, blocking until it is available.
// It fails if n was never computed.
func (r *Results) GetOutput(n *Node) (*tensor.Tensor, error) {
	f, ok := r.outputFuture(n.id)
	if !ok {
		return nil, errkind.NewStateError("node %d has no computed output", n.id)
	}
	v, err := f.Get()
	if err != nil {
		return nil, err
	}
	return v.(*tensor.Tensor), nil
}

// GetGradient returns the accumulated gradient of n. It returns (nil, false)
// rather than an error when n was not part of the last forward cone, per
// the selective-evaluation contract: gradients are only ever computed for
// nodes that were actually evaluated.
func (r *Results) GetGradient(n *Node) (*tensor.Tensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.gradients[n.id]
	return t, ok
}

// Clear discards every stored output, adjoint contribution, and gradient.
func (r *Results) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = make(map[int64]*Future)
	r.adjointContributions = make(map[int64]*Future)
	r.gradients = make(map[int64]*tensor.Tensor)
}
