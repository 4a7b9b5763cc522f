// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package blas defines the boundary to the external GPU linear-algebra
// backend: a black-box device that performs single-precision general matrix
// multiply (sgemm) and moves buffers between host and device. This package
// specifies only the interface; the GPU kernel implementation itself is out
// of scope for this module (see blas/webgpu for the device-backed
// implementation and blas/cpucompute for the always-available reference
// implementation used by default and in tests).
package blas
