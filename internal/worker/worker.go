package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// Submitter is what services depend on to run best-effort side effects
type Submitter interface {
	Submit(name string, t Task)
}

type WorkerPool struct {
	taskQueue   chan namedTask
	wg          sync.WaitGroup
	isClosing   atomic.Bool // thread-safe value
	mu          sync.RWMutex
	log         zerolog.Logger
	taskTimeout time.Duration
}

type namedTask struct {
	name string
	run  Task
}

func NewWorkerPool(size, queueSize int, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		taskQueue:   make(chan namedTask, queueSize),
		log:         log,
		taskTimeout: 10 * time.Second,
	}

	// Start the workers
	for range size {
		wp.wg.Add(1) // add to WaitGroup
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done() // signal when worker finished
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task namedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), wp.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			wp.log.Error().Str("task", task.name).Interface("panic", r).Msg("worker task panicked")
		}
	}()

	if err := task.run(ctx); err != nil { // run task
		wp.log.Warn().Err(err).Str("task", task.name).Msg("worker task failed")
	}
}

// Submit enqueues t. Tasks are dropped, with a log line, when the pool is
// shutting down or the queue is full.
func (wp *WorkerPool) Submit(name string, t Task) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.isClosing.Load() {
		wp.log.Warn().Str("task", name).Msg("task submitted during shutdown, dropping")
		return
	}
	select {
	case wp.taskQueue <- namedTask{name: name, run: t}: // send task to worker pool
	default:
		wp.log.Warn().Str("task", name).Msg("task queue full, dropping task")
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.isClosing.Swap(true) {
		wp.mu.Unlock()
		return
	}
	close(wp.taskQueue) // Stop accepting new tasks
	wp.mu.Unlock()

	wp.wg.Wait() // Wait for all active workers to finish tasks
}

// Inline runs tasks synchronously on the caller's goroutine. Tests use it to
// observe side effects without waiting on the pool.
type Inline struct {
	Log zerolog.Logger
}

func (i Inline) Submit(name string, t Task) {
	if err := t(context.Background()); err != nil {
		i.Log.Warn().Err(err).Str("task", name).Msg("inline task failed")
	}
}
