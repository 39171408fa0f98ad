package syncer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTaskQueue_Run(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name          string
		tasks         int
		failAt        int
		cancelAt      int
		wantCompleted int
		wantErr       error
		wantRan       []int
	}{
		{name: "runs all in order", tasks: 3, failAt: -1, cancelAt: -1, wantCompleted: 3, wantRan: []int{0, 1, 2}},
		{name: "stops at first error", tasks: 3, failAt: 1, cancelAt: -1, wantCompleted: 1, wantErr: boom, wantRan: []int{0, 1}},
		{name: "cancel takes effect before next task", tasks: 3, failAt: -1, cancelAt: 0, wantCompleted: 1, wantErr: ErrCancelled, wantRan: []int{0}},
		{name: "empty queue", tasks: 0, failAt: -1, cancelAt: -1, wantCompleted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewTaskQueue(time.Millisecond)
			var ran []int
			for i := 0; i < tt.tasks; i++ {
				q.Add(func(ctx context.Context) error {
					ran = append(ran, i)
					if i == tt.cancelAt {
						q.Cancel()
					}
					if i == tt.failAt {
						return boom
					}
					return nil
				})
			}

			completed, err := q.Run(context.Background())
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if completed != tt.wantCompleted {
				t.Errorf("Run() completed = %d, want %d", completed, tt.wantCompleted)
			}
			if len(ran) != len(tt.wantRan) {
				t.Fatalf("ran = %v, want %v", ran, tt.wantRan)
			}
			for i := range ran {
				if ran[i] != tt.wantRan[i] {
					t.Errorf("ran = %v, want %v", ran, tt.wantRan)
				}
			}
		})
	}
}

func TestTaskQueue_ContextCancelledDuringYield(t *testing.T) {
	q := NewTaskQueue(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	q.Add(func(context.Context) error {
		cancel()
		return nil
	})
	q.Add(func(context.Context) error {
		t.Error("second task must not run")
		return nil
	})

	completed, err := q.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}
}
