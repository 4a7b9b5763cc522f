// Package cpucompute is the always-available, pure-Go reference
// implementation of the blas.Device contract. It performs sgemm directly on
// host memory rather than dispatching to a GPU device, mirroring the naive
// path the teacher framework keeps alongside its optimized/device-backed
// backends (internal/backend/cpu).
package cpucompute

import (
	"sync"

	"github.com/born-ml/tensorgraph/blas"
	"github.com/born-ml/tensorgraph/errkind"
)

var _ blas.Device = (*Device)(nil)

// bufferHandle identifies a host-resident "device" buffer.
type bufferHandle struct {
	id int
}

// Device is a CPU-backed blas.Device: Allocate/ReadBuffer/Release manage a
// plain in-process buffer table, and Sgemm computes the product with triple
// nested loops.
type Device struct {
	mu      sync.Mutex
	nextID  int
	buffers map[int][]float32
}

// New creates a CPU-backed Device.
func New() *Device {
	return &Device{buffers: make(map[int][]float32)}
}

// Allocate copies values into a new host buffer.
func (d *Device) Allocate(values []float32) (blas.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]float32, len(values))
	copy(buf, values)

	id := d.nextID
	d.nextID++
	d.buffers[id] = buf
	return bufferHandle{id: id}, nil
}

// ReadBuffer copies length float32s back from the buffer at h.
func (d *Device) ReadBuffer(h blas.Handle, length int) ([]float32, error) {
	handle, ok := h.(bufferHandle)
	if !ok {
		return nil, errkind.NewBackendError(errkind.NewArgumentError("invalid handle: %v", h))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, ok := d.buffers[handle.id]
	if !ok {
		return nil, errkind.NewBackendError(errkind.NewArgumentError("unknown buffer: %v", h))
	}
	if length > len(buf) {
		length = len(buf)
	}
	out := make([]float32, length)
	copy(out, buf[:length])
	return out, nil
}

// Release frees the buffer at h.
func (d *Device) Release(h blas.Handle) error {
	handle, ok := h.(bufferHandle)
	if !ok {
		return errkind.NewBackendError(errkind.NewArgumentError("invalid handle: %v", h))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, handle.id)
	return nil
}

// Sgemm computes C := op(A)*op(B) + C in row-major layout.
func (d *Device) Sgemm(a, b, c blas.Handle, aT, bT bool, m, n, k, lda, ldb, ldc int) error {
	aBuf, err := d.lookup(a)
	if err != nil {
		return err
	}
	bBuf, err := d.lookup(b)
	if err != nil {
		return err
	}
	cBuf, err := d.lookup(c)
	if err != nil {
		return err
	}

	aAt := func(i, p int) float32 {
		if aT {
			return aBuf[p*lda+i]
		}
		return aBuf[i*lda+p]
	}
	bAt := func(p, j int) float32 {
		if bT {
			return bBuf[j*ldb+p]
		}
		return bBuf[p*ldb+j]
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for p := 0; p < k; p++ {
				sum += aAt(i, p) * bAt(p, j)
			}
			cBuf[i*ldc+j] += sum
		}
	}
	return nil
}

func (d *Device) lookup(h blas.Handle) ([]float32, error) {
	handle, ok := h.(bufferHandle)
	if !ok {
		return nil, errkind.NewBackendError(errkind.NewArgumentError("invalid handle: %v", h))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[handle.id]
	if !ok {
		return nil, errkind.NewBackendError(errkind.NewArgumentError("unknown buffer: %v", h))
	}
	return buf, nil
}
