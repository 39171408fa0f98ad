package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/embedding"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/storage"
)

// Defaults for Config fields left at zero.
const (
	DefaultBatchSize     = 25
	DefaultStaleFraction = 0.25
	DefaultMaxTokens     = 512
	DefaultStateCacheTTL = time.Minute
)

// Config tunes an Orchestrator.
type Config struct {
	// Owner identifies the corpus owner in the index fingerprint.
	Owner string
	// MaxTokens is the passage token budget.
	MaxTokens int
	// BatchSize is the number of notes committed per batch.
	BatchSize int
	// StaleFraction is the share of changed notes at which the index is
	// reported NotSynced instead of PartiallySynced.
	StaleFraction float64
	// ConfirmThreshold is the estimated cost above which Confirmer is asked.
	ConfirmThreshold float64
	// EmbedBatchSize is the number of texts per embedding request.
	EmbedBatchSize int
	// YieldDelay is paused between batches.
	YieldDelay time.Duration
	// StateCacheTTL bounds how long State reuses its last answer when no
	// sync or InvalidateState call has intervened. Negative disables caching.
	StateCacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.StaleFraction <= 0 {
		c.StaleFraction = DefaultStaleFraction
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = embedding.DefaultRequestBatchSize
	}
	if c.StateCacheTTL == 0 {
		c.StateCacheTTL = DefaultStateCacheTTL
	}
	return c
}

// Orchestrator brings the index up to date with a NotesSource.
type Orchestrator struct {
	index     Index
	chunker   Chunker
	provider  embedding.Provider
	confirmer Confirmer
	mirror    Mirror
	cfg       Config
	now       func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	queue   *TaskQueue

	stateMu  sync.Mutex
	stateGen uint64
	state    *cachedState
}

type cachedState struct {
	value State
	at    time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMirror copies every committed batch to m.
func WithMirror(m Mirror) Option {
	return func(o *Orchestrator) {
		o.mirror = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator. A nil confirmer approves every cost.
func NewOrchestrator(index Index, chunker Chunker, provider embedding.Provider, confirmer Confirmer, cfg Config, opts ...Option) *Orchestrator {
	if confirmer == nil {
		confirmer = AutoConfirmer{}
	}
	o := &Orchestrator{
		index:     index,
		chunker:   chunker,
		provider:  provider,
		confirmer: confirmer,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fingerprint is the identity vectors are produced under.
func (o *Orchestrator) Fingerprint() storage.Fingerprint {
	return storage.Fingerprint{Owner: o.cfg.Owner, Model: o.provider.Metadata().Model}
}

// Running reports whether a sync is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Cancel stops a running sync before its next batch.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queue != nil {
		o.queue.Cancel()
	}
}

// InvalidateState drops the cached State, so the next call rescans the notes.
func (o *Orchestrator) InvalidateState() {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.stateGen++
	o.state = nil
}

// State reports how far the index trails src. The answer is cached until
// the next sync, InvalidateState or Config.StateCacheTTL, whichever comes
// first; an Orchestrator is expected to serve a single source.
func (o *Orchestrator) State(ctx context.Context, src NotesSource) (State, error) {
	if o.running.Load() {
		return Syncing, nil
	}

	o.stateMu.Lock()
	gen, cached := o.stateGen, o.state
	o.stateMu.Unlock()
	if cached != nil && o.now().Sub(cached.at) < o.cfg.StateCacheTTL {
		return cached.value, nil
	}

	state, err := o.computeState(ctx, src)
	if err != nil {
		return state, err
	}
	if o.cfg.StateCacheTTL > 0 {
		o.stateMu.Lock()
		if o.stateGen == gen {
			o.state = &cachedState{value: state, at: o.now()}
		}
		o.stateMu.Unlock()
	}
	return state, nil
}

func (o *Orchestrator) computeState(ctx context.Context, src NotesSource) (State, error) {
	stored, err := o.index.Fingerprint(ctx)
	if err != nil {
		return NotSynced, err
	}
	if stored != o.Fingerprint() {
		return NotSynced, nil
	}

	notes, err := src.ListNotes(ctx, NoteFilter{IncludeArchived: true})
	if err != nil {
		return NotSynced, fmt.Errorf("failed to list notes: %w", err)
	}
	last, err := o.index.LastSyncTime(ctx)
	if err != nil {
		return NotSynced, err
	}

	targets := len(selectTargets(notes, last))
	return classify(targets, len(notes), o.cfg.StaleFraction), nil
}

func classify(targets, total int, staleFraction float64) State {
	switch {
	case targets == 0:
		return FullySynced
	case total > 0 && float64(targets) >= staleFraction*float64(total):
		return NotSynced
	default:
		return PartiallySynced
	}
}

// selectTargets returns notes created or updated after last. Notes without
// timestamps are always included.
func selectTargets(notes []Note, last time.Time) []Note {
	var out []Note
	for _, n := range notes {
		if last.IsZero() ||
			(n.CreatedAt.IsZero() && n.UpdatedAt.IsZero()) ||
			n.CreatedAt.After(last) || n.UpdatedAt.After(last) {
			out = append(out, n)
		}
	}
	return out
}

// run carries per-sync state across batches.
type run struct {
	summary    *Summary
	checkpoint storage.Checkpoint
	total      int
	batches    int
	onProgress ProgressFunc
}

// Sync indexes every note of src changed since the last completed sync,
// prunes passages of deleted notes and, on success, advances the last sync
// time. An interrupted sync resumes from its checkpoint.
func (o *Orchestrator) Sync(ctx context.Context, src NotesSource, onProgress ProgressFunc) (*Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.running.Store(false)
	defer o.InvalidateState()

	queue := NewTaskQueue(o.cfg.YieldDelay)
	o.mu.Lock()
	o.queue = queue
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.queue = nil
		o.mu.Unlock()
	}()

	ctx, logger := contextutil.WithAttrs(ctx, "sync_id", uuid.NewString())

	start := o.now()
	summary := &Summary{}
	defer func() {
		summary.Duration = o.now().Sub(start)
		summary.Partial = summary.Aborted || summary.Failed > 0
	}()

	if err := o.checkFingerprint(ctx); err != nil {
		return summary, err
	}

	notes, err := src.ListNotes(ctx, NoteFilter{IncludeArchived: true})
	if err != nil {
		return summary, fmt.Errorf("failed to list notes: %w", err)
	}

	keep := make([]string, len(notes))
	for i, n := range notes {
		keep[i] = n.ID
	}
	pruned, err := o.index.PruneNotes(ctx, keep)
	if err != nil {
		return summary, fmt.Errorf("failed to prune deleted notes: %w", err)
	}
	summary.Pruned = len(pruned)
	if o.mirror != nil && len(pruned) > 0 {
		if err := o.mirror.DeleteNotes(ctx, pruned); err != nil {
			logger.WarnContext(ctx, "failed to prune mirror", "error", err)
		}
	}

	last, err := o.index.LastSyncTime(ctx)
	if err != nil {
		return summary, err
	}
	targets := selectTargets(notes, last)

	cp := storage.Checkpoint{Since: last, StartedAt: start}
	saved, err := o.index.Checkpoint(ctx)
	if err != nil {
		return summary, err
	}
	if saved != nil && saved.Since.Equal(last) {
		done := make(map[string]struct{}, len(saved.Processed))
		for _, id := range saved.Processed {
			done[id] = struct{}{}
		}
		remaining := targets[:0:0]
		for _, n := range targets {
			if _, ok := done[n.ID]; !ok {
				remaining = append(remaining, n)
			}
		}
		logger.InfoContext(ctx, "resuming sync from checkpoint",
			"already_processed", len(targets)-len(remaining), "remaining", len(remaining))
		targets = remaining
		cp = *saved
	}
	summary.Total = len(targets)

	batches := partition(targets, o.cfg.BatchSize)
	r := &run{summary: summary, checkpoint: cp, total: len(targets), batches: len(batches), onProgress: onProgress}
	for i, batch := range batches {
		queue.Add(func(ctx context.Context) error {
			return o.processBatch(ctx, r, i, batch)
		})
	}

	logger.InfoContext(ctx, "sync started", "targets", len(targets), "batches", len(batches), "notes", len(notes))

	if _, err := queue.Run(ctx); err != nil {
		if errors.Is(err, errDeclined) || errors.Is(err, ErrCancelled) {
			summary.Aborted = true
			if saveErr := o.index.SaveCheckpoint(ctx, r.checkpoint); saveErr != nil {
				logger.WarnContext(ctx, "failed to save checkpoint", "error", saveErr)
			}
			logger.InfoContext(ctx, "sync aborted", "reason", err, "processed", summary.Processed)
			return summary, nil
		}
		logger.ErrorContext(ctx, "sync failed", "error", err, "processed", summary.Processed)
		return summary, err
	}

	// A resumed run counts from the original start so edits made during
	// the interruption are picked up next time.
	if err := o.index.SetLastSyncTime(ctx, r.checkpoint.StartedAt); err != nil {
		return summary, err
	}
	if err := o.index.ClearCheckpoint(ctx); err != nil {
		return summary, err
	}

	logger.InfoContext(ctx, "sync completed", "summary", summary.String())
	return summary, nil
}

// checkFingerprint resets the index when the owner or model changed.
func (o *Orchestrator) checkFingerprint(ctx context.Context) error {
	stored, err := o.index.Fingerprint(ctx)
	if err != nil {
		return err
	}
	live := o.Fingerprint()
	if stored == live {
		return nil
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index fingerprint changed, rebuilding",
		"stored_owner", stored.Owner, "stored_model", stored.Model,
		"owner", live.Owner, "model", live.Model)
	if err := o.index.Reset(ctx); err != nil {
		return err
	}
	if o.mirror != nil {
		if err := o.mirror.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset mirror: %w", err)
		}
	}
	return o.index.SetFingerprint(ctx, live)
}

func (o *Orchestrator) processBatch(ctx context.Context, r *run, index int, notes []Note) error {
	logger := contextutil.LoggerFromContext(ctx)

	var passages []indexer.Passage
	var noteIDs []string
	for _, n := range notes {
		chunks, err := o.chunker.Chunk(n.Content, noteMeta(n), o.cfg.MaxTokens)
		if err != nil {
			logger.WarnContext(ctx, "skipping note that failed to chunk", "note_id", n.ID, "error", err)
			r.summary.Failed++
			r.summary.Failures = append(r.summary.Failures, NoteFailure{NoteID: n.ID, Err: err})
			continue
		}
		noteIDs = append(noteIDs, n.ID)
		passages = append(passages, chunks...)
	}

	reused, missing, err := o.attachStoredVectors(ctx, passages)
	if err != nil {
		return err
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = passages[idx].ProcessedContent
	}

	if index == 0 {
		if err := o.confirmCost(ctx, r, len(notes), texts); err != nil {
			return err
		}
	}

	if len(texts) > 0 {
		vectors, err := embedding.EmbedAll(ctx, o.provider, texts, embedding.InputPassage, o.cfg.EmbedBatchSize)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d: %w", index+1, err)
		}
		for i, idx := range missing {
			passages[idx].Vector = vectors[i]
		}
	}

	report, err := o.index.ReplaceNotePassages(ctx, noteIDs, passages)
	switch {
	case errors.Is(err, storage.ErrBatchFailed):
		logger.WarnContext(ctx, "every passage in batch failed validation", "batch", index+1, "error", err)
		for _, id := range noteIDs {
			r.summary.Failed++
			r.summary.Failures = append(r.summary.Failures, NoteFailure{NoteID: id, Err: storage.ErrBatchFailed})
		}
		noteIDs = nil
	case err != nil:
		return fmt.Errorf("failed to store batch %d: %w", index+1, err)
	default:
		r.summary.Processed += len(noteIDs)
		r.summary.EmbeddedPassages += len(missing)
		r.summary.ReusedVectors += reused
		for _, f := range report.Failures {
			r.summary.Failures = append(r.summary.Failures, NoteFailure{NoteID: noteOf(f.ID, passages), Err: &f})
		}
		o.mirrorBatch(ctx, noteIDs, passages)
	}

	for _, n := range notes {
		r.checkpoint.Processed = append(r.checkpoint.Processed, n.ID)
	}
	if err := o.index.SaveCheckpoint(ctx, r.checkpoint); err != nil {
		return err
	}

	if r.onProgress != nil {
		r.onProgress(Progress{Batch: index + 1, Batches: r.batches, Processed: r.summary.Processed, Total: r.total})
	}
	stats := indexer.PassageStats(passages)
	logger.DebugContext(ctx, "batch committed",
		"batch", index+1, "batches", r.batches, "passages", len(passages), "embedded", len(missing), "reused", reused,
		"tokens_max", stats.Max, "tokens_p95", stats.P95)
	return nil
}

// attachStoredVectors fills vectors of passages whose content is already
// indexed and returns the indexes of the ones still needing an embedding.
func (o *Orchestrator) attachStoredVectors(ctx context.Context, passages []indexer.Passage) (int, []int, error) {
	hashes := make([]string, 0, len(passages))
	for _, p := range passages {
		hashes = append(hashes, p.ContentHash)
	}
	stored, err := o.index.VectorsByContentHash(ctx, hashes)
	if err != nil {
		return 0, nil, err
	}

	reused := 0
	var missing []int
	for i := range passages {
		if vec, ok := stored[passages[i].ContentHash]; ok {
			passages[i].Vector = vec
			reused++
			continue
		}
		missing = append(missing, i)
	}
	return reused, missing, nil
}

// confirmCost extrapolates the first batch's embedding volume to the whole
// run and asks the confirmer when the price crosses the threshold.
func (o *Orchestrator) confirmCost(ctx context.Context, r *run, batchNotes int, texts []string) error {
	if batchNotes == 0 {
		return nil
	}
	tokens := embedding.EstimateTokens(texts)
	estimated := tokens * r.total / batchNotes
	cost := o.provider.EstimateCost(estimated)
	if cost <= o.cfg.ConfirmThreshold {
		return nil
	}

	ok, err := o.confirmer.ConfirmCost(ctx, CostEstimate{
		Notes:           r.total,
		EstimatedTokens: estimated,
		EstimatedCost:   cost,
		Model:           o.provider.Metadata().Model,
	})
	if err != nil {
		return fmt.Errorf("failed to confirm cost: %w", err)
	}
	if !ok {
		return errDeclined
	}
	return nil
}

func (o *Orchestrator) mirrorBatch(ctx context.Context, noteIDs []string, passages []indexer.Passage) {
	if o.mirror == nil || len(noteIDs) == 0 {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	if err := o.mirror.DeleteNotes(ctx, noteIDs); err != nil {
		logger.WarnContext(ctx, "failed to clear mirrored notes", "error", err)
		return
	}
	var vectored []indexer.Passage
	for _, p := range passages {
		if len(p.Vector) > 0 {
			vectored = append(vectored, p)
		}
	}
	if len(vectored) == 0 {
		return
	}
	if err := o.mirror.UpsertPassages(ctx, vectored); err != nil {
		logger.WarnContext(ctx, "failed to mirror passages", "error", err)
	}
}

func noteMeta(n Note) indexer.NoteMeta {
	return indexer.NoteMeta{
		NoteID: n.ID,
		Title:  n.Title,
		Tags:   n.Tags,
		Images: n.Images,
		Flags:  n.Flags,
	}
}

func noteOf(passageID string, passages []indexer.Passage) string {
	for _, p := range passages {
		if p.ID == passageID {
			return p.NoteID
		}
	}
	return ""
}

func partition(notes []Note, size int) [][]Note {
	var out [][]Note
	for start := 0; start < len(notes); start += size {
		out = append(out, notes[start:min(start+size, len(notes))])
	}
	return out
}
