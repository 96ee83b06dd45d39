package worker

import (
	"context"
	"sync"
)

// Pool runs tasks with a bounded number of concurrent goroutines. Per-service
// analytics passes fan out through a Pool so one slow service cannot starve
// the rest of the run.
type Pool struct {
	sem  chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// NewPool creates a pool allowing at most maxConcurrent tasks in flight.
func NewPool(maxConcurrent int) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{sem: make(chan struct{}, maxConcurrent)}
}

// Submit schedules a task, blocking while the pool is at capacity. It returns
// the context error without running the task if ctx is done first.
func (p *Pool) Submit(ctx context.Context, task func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		if err := task(ctx); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
	return nil
}

// Wait blocks until all submitted tasks finish and returns the errors they
// reported, in completion order.
func (p *Pool) Wait() []error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	errs := p.errs
	p.errs = nil
	return errs
}
