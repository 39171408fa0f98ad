package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sync.go -package=mocks notes-retrieval/internal/service Syncer,IndexStats
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sync_service.go -package=mocks -mock_names=SyncService=MockSyncService notes-retrieval/internal/service SyncService

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
)

// Syncer runs index syncs. Implemented by syncer.Orchestrator.
type Syncer interface {
	Sync(ctx context.Context, src syncer.NotesSource, onProgress syncer.ProgressFunc) (*syncer.Summary, error)
	State(ctx context.Context, src syncer.NotesSource) (syncer.State, error)
	Cancel()
}

// IndexStats reports what the index holds. Implemented by storage.Store.
type IndexStats interface {
	Stats(ctx context.Context) (storage.Stats, error)
	LastSyncTime(ctx context.Context) (time.Time, error)
}

// RunReport describes the latest sync run.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Progress   syncer.Progress
	Summary    *syncer.Summary
	Err        string
}

// Status is a snapshot of the index and its sync machinery.
type Status struct {
	State        syncer.State
	Running      bool
	Stats        storage.Stats
	LastSyncTime time.Time
	LastRun      *RunReport
}

// SyncService coordinates foreground, background and scheduled syncs.
type SyncService interface {
	// Start launches a sync in the background. It fails with ErrPrecondition
	// while another sync runs.
	Start(ctx context.Context) error
	// Run syncs in the foreground and returns the summary.
	Run(ctx context.Context, onProgress syncer.ProgressFunc) (*syncer.Summary, error)
	// Status reports the index state and the latest run.
	Status(ctx context.Context) (Status, error)
	// Cancel stops the running sync after its current batch.
	Cancel()
	// Schedule runs a sync on the cron spec until the returned stop func is called.
	Schedule(ctx context.Context, spec string) (func(), error)
	// Wait blocks until background syncs have finished.
	Wait()
}

type syncService struct {
	syncer Syncer
	source syncer.NotesSource
	stats  IndexStats

	busy atomic.Bool
	wg   sync.WaitGroup

	mu   sync.Mutex
	last *RunReport
}

// NewSyncService creates a new SyncService syncing src.
func NewSyncService(s Syncer, src syncer.NotesSource, stats IndexStats) SyncService {
	return &syncService{
		syncer: s,
		source: src,
		stats:  stats,
	}
}

func (s *syncService) Start(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return classify(syncer.ErrSyncInProgress, "failed to start sync")
	}

	// The run outlives the request that started it but keeps its logger.
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		if _, err := s.run(bg, nil); err != nil {
			contextutil.LoggerFromContext(bg).ErrorContext(bg, "background sync failed", "error", err)
		}
	}()

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "background sync started")
	return nil
}

func (s *syncService) Run(ctx context.Context, onProgress syncer.ProgressFunc) (*syncer.Summary, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, classify(syncer.ErrSyncInProgress, "failed to start sync")
	}
	defer s.busy.Store(false)
	return s.run(ctx, onProgress)
}

func (s *syncService) run(ctx context.Context, onProgress syncer.ProgressFunc) (*syncer.Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	report := &RunReport{StartedAt: time.Now()}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	summary, err := s.syncer.Sync(ctx, s.source, func(p syncer.Progress) {
		s.mu.Lock()
		report.Progress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	})

	s.mu.Lock()
	report.FinishedAt = time.Now()
	report.Summary = summary
	if err != nil {
		report.Err = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		return summary, classify(err, "failed to sync")
	}
	logger.InfoContext(ctx, "sync request processed successfully", "summary", summary.String())
	return summary, nil
}

func (s *syncService) Status(ctx context.Context) (Status, error) {
	state, err := s.syncer.State(ctx, s.source)
	if err != nil {
		return Status{}, classify(err, "failed to read sync state")
	}
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return Status{}, classify(err, "failed to read index stats")
	}
	lastSync, err := s.stats.LastSyncTime(ctx)
	if err != nil {
		return Status{}, classify(err, "failed to read last sync time")
	}

	status := Status{
		State:        state,
		Running:      s.busy.Load(),
		Stats:        stats,
		LastSyncTime: lastSync,
	}
	s.mu.Lock()
	if s.last != nil {
		last := *s.last
		status.LastRun = &last
	}
	s.mu.Unlock()
	return status, nil
}

func (s *syncService) Cancel() {
	s.syncer.Cancel()
}

func (s *syncService) Schedule(ctx context.Context, spec string) (func(), error) {
	logger := contextutil.LoggerFromContext(ctx)

	c := cron.New(cron.WithLogger(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	_, err := c.AddFunc(spec, func() {
		summary, err := s.Run(ctx, nil)
		if err != nil {
			logger.WarnContext(ctx, "scheduled sync failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "scheduled sync finished", "processed", summary.Processed, "failed", summary.Failed)
	})
	if err != nil {
		return nil, &ValidationError{Field: "schedule", Message: fmt.Sprintf("invalid cron spec %q: %v", spec, err)}
	}

	c.Start()
	logger.InfoContext(ctx, "sync scheduled", "spec", spec)
	return func() {
		<-c.Stop().Done()
	}, nil
}

func (s *syncService) Wait() {
	s.wg.Wait()
}
