package download

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of workers fed by a bounded queue.
// Submit blocks while the queue is full.
type Pool struct {
	workerCount int
	queue       chan Task
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewPool creates a pool; it does nothing until Start.
func NewPool(workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = workerCount
	}
	return &Pool{
		workerCount: workerCount,
		queue:       make(chan Task, queueSize),
	}
}

// Start launches the workers. Tasks dequeued after ctx is done still run
// and must check ctx before starting any work.
func (it *Pool) Start(ctx context.Context) {
	for range it.workerCount {
		it.wg.Add(1)
		go it.worker(ctx)
	}
}

// Submit queues a task, blocking while the queue is full.
func (it *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case it.queue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (it *Pool) Close() {
	it.closeOnce.Do(func() { close(it.queue) })
	it.wg.Wait()
}

func (it *Pool) worker(ctx context.Context) {
	defer it.wg.Done()
	for task := range it.queue {
		task(ctx)
	}
}
