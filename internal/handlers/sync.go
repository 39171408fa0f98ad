package handlers

import (
	"net/http"
	"time"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/service"
)

// SyncHandler starts and cancels background syncs.
type SyncHandler struct {
	syncService service.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// SyncResponse acknowledges a sync request.
type SyncResponse struct {
	Status string `json:"status"`
}

// ServeHTTP handles POST (start) and DELETE (cancel) on /api/sync. Both
// return 202 Accepted; progress is visible through /api/status.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodPost:
		if err := h.syncService.Start(ctx); err != nil {
			handleServiceError(ctx, w, err, "Failed to start sync")
			return
		}
		writeJSON(w, http.StatusAccepted, SyncResponse{Status: "started"})
	case http.MethodDelete:
		h.syncService.Cancel()
		writeJSON(w, http.StatusAccepted, SyncResponse{Status: "cancelling"})
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// StatusHandler reports index and sync state.
type StatusHandler struct {
	syncService service.SyncService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(syncService service.SyncService) *StatusHandler {
	return &StatusHandler{syncService: syncService}
}

// RunResponse describes the latest sync run.
type RunResponse struct {
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Batch      int    `json:"batch"`
	Batches    int    `json:"batches"`
	Processed  int    `json:"processed"`
	Total      int    `json:"total"`
	Failed     int    `json:"failed"`
	Aborted    bool   `json:"aborted"`
	Summary    string `json:"summary,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StatusResponse represents the HTTP response payload for status.
//
// swagger:model StatusResponse
type StatusResponse struct {
	State            string       `json:"state"`
	Running          bool         `json:"running"`
	Passages         int          `json:"passages"`
	Notes            int          `json:"notes"`
	VectoredPassages int          `json:"vectored_passages"`
	LastSyncTime     string       `json:"last_sync_time,omitempty"`
	LastRun          *RunResponse `json:"last_run,omitempty"`
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status, err := h.syncService.Status(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read status")
		return
	}

	resp := StatusResponse{
		State:            status.State.String(),
		Running:          status.Running,
		Passages:         status.Stats.Passages,
		Notes:            status.Stats.Notes,
		VectoredPassages: status.Stats.VectoredPassages,
		LastSyncTime:     formatTime(status.LastSyncTime),
	}
	if run := status.LastRun; run != nil {
		resp.LastRun = &RunResponse{
			StartedAt:  formatTime(run.StartedAt),
			FinishedAt: formatTime(run.FinishedAt),
			Batch:      run.Progress.Batch,
			Batches:    run.Progress.Batches,
			Processed:  run.Progress.Processed,
			Total:      run.Progress.Total,
			Error:      run.Err,
		}
		if run.Summary != nil {
			resp.LastRun.Processed = run.Summary.Processed
			resp.LastRun.Total = run.Summary.Total
			resp.LastRun.Failed = run.Summary.Failed
			resp.LastRun.Aborted = run.Summary.Aborted
			resp.LastRun.Summary = run.Summary.String()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
