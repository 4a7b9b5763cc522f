package blas

// Handle is an opaque device buffer reference returned by Allocate.
type Handle any

// Device is the external BLAS backend contract: host/device buffer
// management plus a single-precision general matrix multiply. aT and bT
// select whether each operand is read transposed. Sgemm computes
// C := 1*op(A)*op(B) + 1*C in row-major layout; the caller must
// zero-initialize C's buffer beforehand when a fresh product (rather than
// an accumulation) is required.
type Device interface {
	// Allocate copies values to a new device buffer and returns its handle.
	Allocate(values []float32) (Handle, error)
	// ReadBuffer copies length float32s back from the device buffer at h.
	ReadBuffer(h Handle, length int) ([]float32, error)
	// Release frees the device buffer at h.
	Release(h Handle) error
	// Sgemm computes C := op(A)*op(B) + C using the row-major leading
	// dimensions lda, ldb, ldc and the output dimensions m (rows), n
	// (columns), k (inner dimension).
	Sgemm(a, b, c Handle, aT, bT bool, m, n, k, lda, ldb, ldc int) error
}
