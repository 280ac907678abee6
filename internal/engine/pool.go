package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// PoolMetrics tracks evaluations run through a Pool.
type PoolMetrics struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Panics    int64 `json:"panics"`
}

// ErrPoolShutdown is returned for tasks offered to a shut-down pool.
var ErrPoolShutdown = errors.New("evaluation pool is shut down")

// Pool bounds the number of evaluations running at once. Batches from
// different callers share the same slots.
type Pool struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	metrics PoolMetrics
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
}

// NewPool creates a pool with the given max concurrency.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem:  make(chan struct{}, size),
		done: make(chan struct{}),
	}
}

// Run executes tasks and waits for all of them. errs[i] is the outcome of
// tasks[i]: its own error, a recovered panic, or the reason it never started
// (context cancellation or shutdown). Acquiring slots applies backpressure,
// so tasks start in order.
func (p *Pool) Run(ctx context.Context, tasks []func(ctx context.Context) error) []error {
	errs := make([]error, len(tasks))
	var batch sync.WaitGroup

	for i, task := range tasks {
		if err := p.acquire(ctx); err != nil {
			for j := i; j < len(tasks); j++ {
				errs[j] = err
			}
			break
		}

		batch.Add(1)
		go func(i int, task func(ctx context.Context) error) {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&p.metrics.Panics, 1)
					atomic.AddInt64(&p.metrics.Failed, 1)
					errs[i] = fmt.Errorf("evaluation panicked: %v", r)
				}
				atomic.AddInt64(&p.metrics.Active, -1)
				<-p.sem
				p.wg.Done()
				batch.Done()
			}()

			errs[i] = task(ctx)
			if errs[i] != nil {
				atomic.AddInt64(&p.metrics.Failed, 1)
			} else {
				atomic.AddInt64(&p.metrics.Completed, 1)
			}
		}(i, task)
	}

	batch.Wait()
	return errs
}

// acquire takes a slot, respecting cancellation and shutdown.
func (p *Pool) acquire(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolShutdown
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrPoolShutdown
	}

	// wg.Add must happen under the lock so Shutdown's Wait cannot race it.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		<-p.sem
		return ErrPoolShutdown
	}
	p.wg.Add(1)
	atomic.AddInt64(&p.metrics.Active, 1)
	return nil
}

// Shutdown stops accepting tasks and waits for running ones to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Metrics returns a snapshot of the current pool metrics.
func (p *Pool) Metrics() PoolMetrics {
	return PoolMetrics{
		Active:    atomic.LoadInt64(&p.metrics.Active),
		Completed: atomic.LoadInt64(&p.metrics.Completed),
		Failed:    atomic.LoadInt64(&p.metrics.Failed),
		Panics:    atomic.LoadInt64(&p.metrics.Panics),
	}
}
