package syncer

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// Task is one unit of background work.
type Task func(ctx context.Context) error

// TaskQueue runs tasks one after another, yielding the processor between
// them so interactive callers waiting on the store get a turn. Cancel takes
// effect before the next task starts; a running task is never interrupted.
type TaskQueue struct {
	tasks      []Task
	yieldDelay time.Duration
	cancelled  atomic.Bool
}

// NewTaskQueue creates a queue that pauses yieldDelay after each task.
func NewTaskQueue(yieldDelay time.Duration) *TaskQueue {
	return &TaskQueue{yieldDelay: yieldDelay}
}

// Add appends a task.
func (q *TaskQueue) Add(t Task) {
	q.tasks = append(q.tasks, t)
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Cancel stops the queue before its next task.
func (q *TaskQueue) Cancel() {
	q.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (q *TaskQueue) Cancelled() bool {
	return q.cancelled.Load()
}

// Run executes the tasks in order and returns how many completed. It stops
// at the first task error, on Cancel (ErrCancelled) or when ctx is done.
func (q *TaskQueue) Run(ctx context.Context) (int, error) {
	for i, task := range q.tasks {
		if q.cancelled.Load() {
			return i, ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := task(ctx); err != nil {
			return i, err
		}
		if i < len(q.tasks)-1 {
			if err := q.yield(ctx); err != nil {
				return i + 1, err
			}
		}
	}
	return len(q.tasks), nil
}

func (q *TaskQueue) yield(ctx context.Context) error {
	runtime.Gosched()
	if q.yieldDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(q.yieldDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
