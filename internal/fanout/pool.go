// Package fanout runs per-device tasks on a bounded goroutine pool.
package fanout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"go_netinv/internal/util"
)

// ErrPanic wraps a recovered task panic
var ErrPanic = errors.New("task panicked")

// Pool bounds how many tasks run at once
type Pool struct {
	pool *ants.Pool
	name string
}

// New creates a pool running at most size tasks concurrently
func New(name string, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fanout %s: size must be positive, got %d", name, size)
	}
	logger := util.WithComponent("fanout").WithField("pool", name)
	p, err := ants.NewPool(size, ants.WithPanicHandler(func(r interface{}) {
		logger.Errorf("unrecovered task panic: %v", r)
	}))
	if err != nil {
		return nil, fmt.Errorf("fanout %s: %w", name, err)
	}
	return &Pool{pool: p, name: name}, nil
}

// Cap returns the concurrency bound
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops the pool's workers
func (p *Pool) Release() {
	p.pool.Release()
}

// Map runs task(0..n-1) on the pool and waits for all of them. errs[i] is the
// error or recovered panic of task i; a panic never affects other tasks.
func (p *Pool) Map(n int, task func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			errs[i] = task(i)
		})
		if err != nil {
			errs[i] = fmt.Errorf("fanout %s: submit: %w", p.name, err)
			wg.Done()
		}
	}

	wg.Wait()
	return errs
}
