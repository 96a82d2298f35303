package worker

import (
	"context"
	"sync"
)

// Task is one unit of work run by a worker.
type Task func(ctx context.Context)

type Worker struct {
	ctx        context.Context
	workerPool chan chan Task
	jobChannel chan Task
	quit       chan struct{}
	inflight   *sync.WaitGroup
}

func NewWorker(ctx context.Context, pool chan chan Task, inflight *sync.WaitGroup) *Worker {
	return &Worker{
		ctx:        ctx,
		workerPool: pool,
		jobChannel: make(chan Task),
		quit:       make(chan struct{}),
		inflight:   inflight,
	}
}

// Start registers the worker as idle and runs tasks handed to it until Stop.
func (w *Worker) Start() {
	go func() {
		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-w.quit:
				return
			}
			select {
			case task := <-w.jobChannel:
				w.run(task)
			case <-w.quit:
				return
			}
		}
	}()
}

func (w *Worker) run(task Task) {
	defer w.inflight.Done()
	task(w.ctx)
}

func (w *Worker) Stop() {
	close(w.quit)
}
