package graph

import (
	"github.com/born-ml/tensorgraph/blas"
	"github.com/born-ml/tensorgraph/errkind"
	"github.com/born-ml/tensorgraph/tensor"
)

// forward produces n's output given its children's outputs, read from r.
// Constant and Placeholder are resolved synchronously by Graph.Compute and
// never reach here.
func forward(n *Node, r *Results, device blas.Device) (*tensor.Tensor, error) {
	switch n.kind {
	case KindAdd:
		ins, err := childOutputs(n, r)
		if err != nil {
			return nil, err
		}
		return tensor.Add(ins...)
	case KindMul:
		ins, err := childOutputs(n, r)
		if err != nil {
			return nil, err
		}
		return tensor.Mul(ins...)
	case KindMatMul:
		a, err := r.GetOutput(n.children[0])
		if err != nil {
			return nil, err
		}
		b, err := r.GetOutput(n.children[1])
		if err != nil {
			return nil, err
		}
		return matmulForward(device, a, b, n.aTranspose, n.bTranspose)
	default:
		return nil, errkind.NewArgumentError("node %d (%s) has no forward task", n.id, n.kind)
	}
}

// backward computes n's contribution to each of its children's gradients,
// keyed by child id, plus a self-keyed entry holding the incoming delta.
func backward(n *Node, r *Results, device blas.Device, isEndNode bool) (adjointMap, error) {
	self, err := r.GetOutput(n)
	if err != nil {
		return nil, err
	}

	delta, err := incomingDelta(n, r, self, isEndNode)
	if err != nil {
		return nil, err
	}

	contributions := adjointMap{n.id: delta}

	switch n.kind {
	case KindConstant, KindPlaceholder:
		// No children: the self-keyed delta is the whole contribution.

	case KindAdd:
		for _, c := range n.children {
			childOut, err := r.GetOutput(c)
			if err != nil {
				return nil, err
			}
			contribution, err := tensor.Unbroadcast(delta, childOut.Shape())
			if err != nil {
				return nil, err
			}
			accumulateContribution(contributions, c.id, contribution)
		}

	case KindMul:
		for _, c := range n.children {
			childOut, err := r.GetOutput(c)
			if err != nil {
				return nil, err
			}
			// delta * (self.output / c.output); division uses the
			// already-broadcast operands, since tensor.Div broadcasts its
			// inputs internally. A zero entry in childOut divides by zero
			// here, unguarded, matching the source this was ported from.
			quotient, err := tensor.Div(self, childOut)
			if err != nil {
				return nil, err
			}
			scaled, err := tensor.Mul(delta, quotient)
			if err != nil {
				return nil, err
			}
			contribution, err := tensor.Unbroadcast(scaled, childOut.Shape())
			if err != nil {
				return nil, err
			}
			accumulateContribution(contributions, c.id, contribution)
		}

	case KindMatMul:
		a, err := r.GetOutput(n.children[0])
		if err != nil {
			return nil, err
		}
		b, err := r.GetOutput(n.children[1])
		if err != nil {
			return nil, err
		}
		dA, dB, err := matmulBackward(device, delta, a, b, n.aTranspose, n.bTranspose)
		if err != nil {
			return nil, err
		}
		accumulateContribution(contributions, n.children[0].id, dA)
		accumulateContribution(contributions, n.children[1].id, dB)

	default:
		return nil, errkind.NewArgumentError("node %d (%s) has no backward task", n.id, n.kind)
	}

	return contributions, nil
}

// incomingDelta is a tensor of ones with n's output shape when n is an end
// node, or the element-wise sum of every contribution n's consumers have
// already recorded for n, keyed under n's id.
func incomingDelta(n *Node, r *Results, self *tensor.Tensor, isEndNode bool) (*tensor.Tensor, error) {
	if isEndNode {
		return tensor.Ones(self.Shape()...), nil
	}

	var terms []*tensor.Tensor
	for _, consumer := range n.Consumers() {
		f, ok := r.adjointFuture(consumer.id)
		if !ok {
			continue
		}
		v, err := f.Get()
		if err != nil {
			return nil, err
		}
		contributions := v.(adjointMap)
		if t, ok := contributions[n.id]; ok {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return tensor.Zeros(self.Shape()...), nil
	}
	return tensor.Add(terms...)
}

func childOutputs(n *Node, r *Results) ([]*tensor.Tensor, error) {
	out := make([]*tensor.Tensor, len(n.children))
	for i, c := range n.children {
		v, err := r.GetOutput(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func accumulateContribution(m adjointMap, id int64, t *tensor.Tensor) {
	m[id] = t
}

// ld returns the leading dimension (physical storage column count) of a
// row-major operand with logical shape (rows, cols) read with the given
// transpose flag: transposed storage is physically (cols, rows), so its
// row length is rows.
func ld(transposed bool, rows, cols int) int {
	if transposed {
		return rows
	}
	return cols
}

func matmulDims(a, b *tensor.Tensor, aT, bT bool) (m, n, k int, err error) {
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		return 0, 0, 0, errkind.NewShapeError("matmul requires 2D operands, got shapes %v and %v", a.Shape(), b.Shape())
	}
	if aT {
		k, m = a.Shape()[0], a.Shape()[1]
	} else {
		m, k = a.Shape()[0], a.Shape()[1]
	}
	var kb int
	if bT {
		n, kb = b.Shape()[0], b.Shape()[1]
	} else {
		kb, n = b.Shape()[0], b.Shape()[1]
	}
	if k != kb {
		return 0, 0, 0, errkind.NewShapeError("matmul inner dimension mismatch: %d vs %d", k, kb)
	}
	return m, n, k, nil
}

func matmulForward(device blas.Device, a, b *tensor.Tensor, aT, bT bool) (*tensor.Tensor, error) {
	m, n, k, err := matmulDims(a, b, aT, bT)
	if err != nil {
		return nil, err
	}

	lda := ld(aT, m, k)
	ldb := ld(bT, k, n)
	ldc := n

	aH, err := device.Allocate(a.Values())
	if err != nil {
		return nil, errkind.NewBackendError(err)
	}
	defer device.Release(aH)
	bH, err := device.Allocate(b.Values())
	if err != nil {
		return nil, errkind.NewBackendError(err)
	}
	defer device.Release(bH)
	cH, err := device.Allocate(make([]float32, m*n))
	if err != nil {
		return nil, errkind.NewBackendError(err)
	}
	defer device.Release(cH)

	if err := device.Sgemm(aH, bH, cH, aT, bT, m, n, k, lda, ldb, ldc); err != nil {
		return nil, errkind.NewBackendError(err)
	}

	values, err := device.ReadBuffer(cH, m*n)
	if err != nil {
		return nil, errkind.NewBackendError(err)
	}
	return tensor.NewBuilder(m, n).WithValues(values...).Build()
}

// matmulBackward computes the contribution to each operand's gradient.
// dA = delta . op(B)^T and dB = op(A)^T . delta give the gradient with
// respect to the *logical* (post-transpose) views of A and B, shaped
// (m,k) and (k,n); dispatch follows the spec: sgemm(delta, B, dA, a_T=no,
// b_T=!b_T, m, k, n, ...) and sgemm(A, delta, dB, a_T=!a_T, b_T=no, k, n,
// m, ...), with leading dimensions from the general row-major rule (ld)
// rather than the source's hard-coded values, which miscompute dA's ldb
// when b_transpose is set (see DESIGN.md).
//
// A contribution must match the shape of the child node's own stored
// output, not the logical view: when a child is read transposed, its
// stored tensor is the transpose of the logical view the product used, so
// its gradient is transposed back before being returned.
func matmulBackward(device blas.Device, delta, a, b *tensor.Tensor, aT, bT bool) (dA, dB *tensor.Tensor, err error) {
	if _, _, _, err = matmulDims(a, b, aT, bT); err != nil {
		return nil, nil, err
	}

	dA, err = matmulForward(device, delta, b, false, !bT)
	if err != nil {
		return nil, nil, err
	}
	if aT {
		if dA, err = transpose2D(dA); err != nil {
			return nil, nil, err
		}
	}

	dB, err = matmulForward(device, a, delta, !aT, false)
	if err != nil {
		return nil, nil, err
	}
	if bT {
		if dB, err = transpose2D(dB); err != nil {
			return nil, nil, err
		}
	}

	return dA, dB, nil
}

// transpose2D swaps the two axes of a rank-2 tensor.
func transpose2D(t *tensor.Tensor) (*tensor.Tensor, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, errkind.NewShapeError("transpose2D requires a 2D tensor, got shape %v", shape)
	}
	rows, cols := shape[0], shape[1]

	out := tensor.Zeros(cols, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v, err := t.Get(i, j)
			if err != nil {
				return nil, err
			}
			if err := out.Set(v, j, i); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
