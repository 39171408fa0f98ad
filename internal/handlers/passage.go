package handlers

import (
	"net/http"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/service"
)

// PassageHandler returns a single stored passage.
type PassageHandler struct {
	searchService service.SearchService
}

// NewPassageHandler creates a new PassageHandler.
func NewPassageHandler(searchService service.SearchService) *PassageHandler {
	return &PassageHandler{searchService: searchService}
}

// PassageResponse represents a stored passage.
type PassageResponse struct {
	ID               string        `json:"id"`
	NoteID           string        `json:"note_id"`
	NoteTitle        string        `json:"note_title"`
	NoteTags         []string      `json:"note_tags"`
	HeadingAnchor    string        `json:"heading_anchor,omitempty"`
	RawContent       string        `json:"raw_content"`
	ProcessedContent string        `json:"processed_content"`
	TokenCount       int           `json:"token_count"`
	HasVector        bool          `json:"has_vector"`
	Flags            indexer.Flags `json:"flags"`
}

// ServeHTTP handles GET /api/passage?id=<passage id>. Passage ids contain
// "/" and "#", so they travel as a query parameter.
func (h *PassageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	p, err := h.searchService.Passage(ctx, r.URL.Query().Get("id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load passage")
		return
	}

	writeJSON(w, http.StatusOK, PassageResponse{
		ID:               p.ID,
		NoteID:           p.NoteID,
		NoteTitle:        p.NoteTitle,
		NoteTags:         p.NoteTags,
		HeadingAnchor:    p.HeadingAnchor,
		RawContent:       p.RawContent,
		ProcessedContent: p.ProcessedContent,
		TokenCount:       p.TokenCount,
		HasVector:        len(p.Vector) > 0,
		Flags:            p.Flags,
	})
}
