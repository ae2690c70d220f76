package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultCapacity = 1024

// Task is one unit of serialized work, typically a read-modify-write cycle
// against a storage backend.
type Task func(ctx context.Context) error

type job struct {
	seq    uint64
	ctx    context.Context
	task   Task
	result chan error
}

// Queue runs attached tasks one at a time, in the order they were attached.
// A task starts only after the previous task has returned. There is a single
// worker goroutine per Queue.
type Queue struct {
	jobs   chan *job
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	done   chan struct{}
	seq    atomic.Uint64
	logger *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
	}
}

// WithCapacity sets how many tasks may wait before Attach blocks.
// Default is 1024.
func WithCapacity(capacity int) Option {
	return func(q *Queue) {
		if capacity < 0 {
			capacity = 0
		}
		q.jobs = make(chan *job, capacity)
	}
}

// New creates a Queue and starts its worker.
func New(opts ...Option) *Queue {
	q := &Queue{
		jobs:   make(chan *job, defaultCapacity),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.run()
	return q
}

// Attach enqueues task and waits for it to finish, returning its error.
//
// If ctx is done before the task could be enqueued, Attach returns ctx.Err()
// and the task never runs. Once enqueued, a task always runs to completion:
// it receives a context that carries ctx's values but is never cancelled.
// A task that never returns stalls every task behind it.
func (q *Queue) Attach(ctx context.Context, task Task) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}

	j := &job{
		seq:    q.seq.Add(1),
		ctx:    context.WithoutCancel(ctx),
		task:   task,
		result: make(chan error, 1),
	}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}
	q.mu.RUnlock()

	return <-j.result
}

// Pending returns the number of tasks waiting to run.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting tasks, lets already enqueued tasks finish and waits
// for the worker to exit. Close is idempotent.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for j := range q.jobs {
		q.logger.Debug("write queue task started", "seq", j.seq)
		err := q.execute(j)
		q.logger.Debug("write queue task finished", "seq", j.seq, "err", err)
		j.result <- err
	}
}

func (q *Queue) execute(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return j.task(j.ctx)
}
