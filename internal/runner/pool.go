package runner

import (
	"context"
	"fmt"
	"sync"
)

type Job func(ctx context.Context) error

// RunPool executes jobs with at most maxWorkers concurrently. Returns all errors.
// Once ctx is done no further jobs are started and ctx.Err() is reported once.
// A panicking job is reported as an error.
func RunPool(ctx context.Context, maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	sem := make(chan struct{}, maxWorkers)

launch:
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			record(err)
			break
		}
		select {
		case <-ctx.Done():
			record(ctx.Err())
			break launch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					record(fmt.Errorf("panic: %v", r))
				}
			}()
			if err := j(ctx); err != nil {
				record(err)
			}
		}(job)
	}
	wg.Wait()
	return errs
}
