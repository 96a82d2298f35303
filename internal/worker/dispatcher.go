package worker

import (
	"context"
	"sync"
)

// Dispatcher hands queued tasks to a fixed set of workers. At most `workers`
// tasks run at the same time.
type Dispatcher struct {
	pool     chan chan Task
	JobQueue chan Task // tasks waiting for an idle worker

	workers  []*Worker
	inflight sync.WaitGroup
	done     chan struct{}
	once     sync.Once
}

func NewDispatcher(ctx context.Context, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		pool:     make(chan chan Task, workers),
		JobQueue: make(chan Task, queueSize),
		done:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		w := NewWorker(ctx, d.pool, &d.inflight)
		d.workers = append(d.workers, w)
		w.Start()
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for task := range d.JobQueue {
		ch := <-d.pool // blocks until a worker is idle
		ch <- task
	}
}

// Submit queues a task. It blocks while the queue is full and must not be
// called after Wait.
func (d *Dispatcher) Submit(task Task) {
	d.inflight.Add(1)
	d.JobQueue <- task
}

// Wait stops accepting tasks, waits for every submitted task to finish and
// shuts the workers down.
func (d *Dispatcher) Wait() {
	d.once.Do(func() {
		close(d.JobQueue)
		<-d.done
		d.inflight.Wait()
		for _, w := range d.workers {
			w.Stop()
		}
	})
}

// Size is the number of workers.
func (d *Dispatcher) Size() int {
	return len(d.workers)
}
