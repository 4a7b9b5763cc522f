// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides a row-major dense n-dimensional array of 32-bit
// floats, with NumPy-style broadcasting and its inverse (un-broadcasting),
// axis reduction, and element-wise arithmetic primitives.
//
// # Shape
//
// A Tensor's shape is fixed at construction: leading dimensions of size 1
// are trimmed (the last dimension is never trimmed), so a Tensor built with
// shape [1,1,3] is indistinguishable from one built with shape [3]. Values
// are stored contiguously in row-major order and never resized.
//
// # Broadcasting
//
//	a := tensor.Zeros(2, 3)
//	b := tensor.Zeros(1, 3)
//	broadcast, err := tensor.Broadcast(a, b) // both now shape [2,3]
//
// Un-broadcasting reverses this for gradient propagation: it sums a tensor
// along whichever axes were replicated to reach a larger shape.
package tensor
