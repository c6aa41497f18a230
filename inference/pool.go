package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("inference: pool is closed")

// Pool manages a pool of runners for concurrent inference.
type Pool struct {
	runners chan Runner
	size    int
	mu      sync.Mutex
	closed  bool
}

// NewPool creates a pool of size runners built by open.
func NewPool(size int, open func() (Runner, error)) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		runners: make(chan Runner, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		r, err := open()
		if err != nil {
			_ = pool.Close() // original error takes precedence
			return nil, fmt.Errorf("creating runner %d: %w", i, err)
		}
		pool.runners <- r
	}

	return pool, nil
}

// NewSessionPool creates a pool of size ONNX sessions for one model file.
func NewSessionPool(modelPath string, size int) (*Pool, error) {
	return NewPool(size, func() (Runner, error) {
		return NewSession(modelPath)
	})
}

// Acquire gets a runner from the pool, blocking if none available.
// Respects context cancellation. Returns error if pool is closed.
func (p *Pool) Acquire(ctx context.Context) (Runner, error) {
	select {
	case r, ok := <-p.runners:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a runner to the pool.
func (p *Pool) Release(r Runner) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = r.Close()
		return
	}

	select {
	case p.runners <- r:
	default:
		_ = r.Close() // pool full
	}
}

// Infer acquires a runner, runs in through it and releases it.
func (p *Pool) Infer(ctx context.Context, in Input) (Output, error) {
	r, err := p.Acquire(ctx)
	if err != nil {
		return Output{}, err
	}
	defer p.Release(r)
	return r.Infer(ctx, in)
}

// Close closes all runners in the pool. Runners checked out at the time are
// closed when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.runners)
	p.mu.Unlock()

	var errs []error
	for r := range p.runners {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.size
}
