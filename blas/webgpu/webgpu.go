// Package webgpu implements the device-backed blas.Device using WebGPU,
// via zero-CGO Go bindings. It mirrors the teacher framework's WebGPU
// backend (internal/backend/webgpu): request an adapter and device, fail
// gracefully with an error (rather than panicking) when no adapter is
// available, and manage GPU buffers through a small handle table so the
// blas.Device contract's Allocate/ReadBuffer/Release/Sgemm stay symmetric
// with the host-resident reference implementation in blas/cpucompute.
//
// The compute kernel sgemm dispatches to is the out-of-scope "black box"
// this module's specification deliberately does not define; this package
// only owns the device lifecycle and buffer movement boundary around it.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/tensorgraph/blas"
	"github.com/born-ml/tensorgraph/errkind"
)

var _ blas.Device = (*Device)(nil)

// Device is a WebGPU-backed blas.Device.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu      sync.Mutex
	nextID  int
	buffers map[int]*wgpu.Buffer
}

// New requests a high-performance GPU adapter and device. It returns an
// error, rather than panicking, when no adapter is available — the same
// graceful-failure contract the teacher's webgpu.New() uses, since device
// availability is an environment property the caller must be able to probe
// and fall back from (to blas/cpucompute).
func New() (d *Device, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = errkind.NewBackendError(fmt.Errorf("webgpu: native library not available: %v", r))
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, errkind.NewBackendError(fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr))
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, errkind.NewBackendError(fmt.Errorf("webgpu: failed to request device: %w", deviceErr))
	}

	return &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		buffers:  make(map[int]*wgpu.Buffer),
	}, nil
}

// Close releases the underlying device, adapter, and instance.
func (d *Device) Close() {
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

// Allocate copies values to a new GPU buffer and returns its handle.
func (d *Device) Allocate(values []float32) (blas.Handle, error) {
	byteSize := uint64(len(values) * 4)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "",
		Size:             byteSize,
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errkind.NewBackendError(fmt.Errorf("webgpu: allocate: %w", err))
	}
	d.queue.WriteBuffer(buf, 0, float32sToBytes(values))

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.buffers[id] = buf
	d.mu.Unlock()

	return bufferHandle{id: id}, nil
}

// ReadBuffer copies length float32s back from the GPU buffer at h.
func (d *Device) ReadBuffer(h blas.Handle, length int) ([]float32, error) {
	buf, err := d.lookup(h)
	if err != nil {
		return nil, err
	}

	data, err := d.device.ReadBuffer(d.queue, buf, 0, uint64(length*4))
	if err != nil {
		return nil, errkind.NewBackendError(fmt.Errorf("webgpu: read buffer: %w", err))
	}
	return bytesToFloat32s(data, length), nil
}

// Release frees the GPU buffer at h.
func (d *Device) Release(h blas.Handle) error {
	handle, ok := h.(bufferHandle)
	if !ok {
		return errkind.NewBackendError(errkind.NewArgumentError("invalid handle: %v", h))
	}

	d.mu.Lock()
	buf, ok := d.buffers[handle.id]
	delete(d.buffers, handle.id)
	d.mu.Unlock()

	if !ok {
		return errkind.NewBackendError(errkind.NewArgumentError("unknown buffer: %v", h))
	}
	buf.Release()
	return nil
}

// Sgemm runs no compute pass: the sgemm kernel is the external black box
// this module does not define, so it always returns a BackendError. See
// blas/cpucompute for a host-resident implementation of the same contract,
// which is a Graph's default device.
func (d *Device) Sgemm(a, b, c blas.Handle, aT, bT bool, m, n, k, lda, ldb, ldc int) error {
	return errkind.NewBackendError(fmt.Errorf(
		"webgpu: sgemm kernel dispatch is an external dependency not implemented by this module"))
}

type bufferHandle struct {
	id int
}

func (d *Device) lookup(h blas.Handle) (*wgpu.Buffer, error) {
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
