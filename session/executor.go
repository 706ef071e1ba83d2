package session

import "sync"

// executor is the session's concurrent-execution facility backing the
// deferred accessor variants: submissions run on their own goroutine,
// gated by a semaphore so a burst of deferred fetches cannot swamp the
// remote service. No ordering is guaranteed between submissions.
type executor struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newExecutor(maxConcurrent int) *executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &executor{sem: make(chan struct{}, maxConcurrent)}
}

func (x *executor) submit(fn func()) {
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		x.sem <- struct{}{}
		defer func() { <-x.sem }()
		fn()
	}()
}

// close blocks until every submitted task has finished.
func (x *executor) close() { x.wg.Wait() }
