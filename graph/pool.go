package graph

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/born-ml/tensorgraph/errkind"
)

// Task is a unit of work dispatched to a Pool; it produces a value or an
// error.
type Task func() (any, error)

// Future is the result of a dispatched Task. Get blocks until the task
// completes and returns its value or error; it may be called from multiple
// goroutines and from the pool's own workers (a child's future may still be
// pending when a consumer reads it).
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Completed returns an already-resolved Future, used for Constant and
// Placeholder nodes and for placeholder bindings, neither of which needs to
// occupy a pool worker.
func Completed(value any, err error) *Future {
	f := &Future{done: make(chan struct{})}
	f.value, f.err = value, err
	close(f.done)
	return f
}

// Get blocks until the future resolves and returns its value or error.
func (f *Future) Get() (any, error) {
	<-f.done
	return f.value, f.err
}

// Pool is a fixed-size worker pool dispatching Tasks as Futures, grounded on
// the framework's parallel.Config sizing convention (default to the host's
// logical-processor count) but generalized from data-parallel loop splitting
// to one task per graph node.
type Pool struct {
	tasks chan poolJob
	wg    sync.WaitGroup
}

type poolJob struct {
	task   Task
	future *Future
}

// Option configures a Pool.
type Option func(*poolConfig)

type poolConfig struct {
	numWorkers int
}

// WithWorkers overrides the pool's worker count; the default is
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.numWorkers = n
		}
	}
}

// NewPool starts a Pool with runtime.NumCPU() workers unless overridden by
// WithWorkers.
func NewPool(opts ...Option) *Pool {
	cfg := poolConfig{numWorkers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{tasks: make(chan poolJob, 64)}
	for i := 0; i < cfg.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.tasks {
		value, err := runTask(job.task)
		job.future.value, job.future.err = value, err
		close(job.future.done)
	}
}

// runTask recovers a panicking task into a BackendError rather than
// crashing a worker goroutine; the drain in Compute or Gradient then wraps
// it in an ExecutionError.
func runTask(t Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errkind.NewBackendError(fmt.Errorf("task panicked: %v", r))
		}
	}()
	return t()
}

// Submit dispatches task to a worker and returns its Future immediately.
func (p *Pool) Submit(task Task) *Future {
	f := &Future{done: make(chan struct{})}
	p.tasks <- poolJob{task: task, future: f}
	return f
}

// Shutdown drains in-flight tasks and stops all workers. It must not be
// called concurrently with Submit.
func (p *Pool) Shutdown() {
	close(p.tasks)
	p.wg.Wait()
}
