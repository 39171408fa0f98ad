package handlers

import (
	"encoding/json"
	"net/http"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/service"
	"notes-retrieval/internal/storage"
)

// maxSearchBody bounds the request body, query vectors included.
const maxSearchBody = 1 << 20

// SearchHandler handles HTTP requests for vector and hybrid search.
type SearchHandler struct {
	searchService service.SearchService
	hybrid        bool
}

// NewSearchHandler creates a SearchHandler. hybrid selects fused
// lexical and vector ranking.
func NewSearchHandler(searchService service.SearchService, hybrid bool) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		hybrid:        hybrid,
	}
}

// FiltersPayload holds optional flag filters. Omitted flags match anything.
type FiltersPayload struct {
	Archived     *bool `json:"archived,omitempty"`
	Published    *bool `json:"published,omitempty"`
	SharedByMe   *bool `json:"shared_by_me,omitempty"`
	SharedWithMe *bool `json:"shared_with_me,omitempty"`
	TaskListNote *bool `json:"task_list_note,omitempty"`
}

// SearchRequest represents the HTTP request payload for search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query       string         `json:"query"`
	Limit       int            `json:"limit,omitempty"`
	Filters     FiltersPayload `json:"filters"`
	QueryVector []float32      `json:"query_vector,omitempty"`
}

// SearchResult is one ranked passage.
type SearchResult struct {
	PassageID     string   `json:"passage_id"`
	NoteID        string   `json:"note_id"`
	NoteTitle     string   `json:"note_title"`
	NoteTags      []string `json:"note_tags"`
	HeadingAnchor string   `json:"heading_anchor,omitempty"`
	Content       string   `json:"content"`
	Rank          int      `json:"rank"`
	Score         float64  `json:"score"`
	LexicalRank   int      `json:"lexical_rank,omitempty"`
	VectorRank    int      `json:"vector_rank,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Mode    string         `json:"mode"`
	Results []SearchResult `json:"results"`
}

// ServeHTTP handles HTTP requests for search.
//
// Returns 400 for invalid queries, 409 while the index has never been
// synced and 502 when the embedding backend fails.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.searchService.Search(ctx, service.SearchRequest{
		Query:       req.Query,
		Hybrid:      h.hybrid,
		Limit:       req.Limit,
		Filters:     req.Filters.toStorage(),
		QueryVector: req.QueryVector,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process search request")
		return
	}

	resp := SearchResponse{
		Mode:    svcResp.Mode,
		Results: make([]SearchResult, 0, len(svcResp.Results)),
	}
	for _, hit := range svcResp.Results {
		resp.Results = append(resp.Results, SearchResult{
			PassageID:     hit.PassageID,
			NoteID:        hit.NoteID,
			NoteTitle:     hit.NoteTitle,
			NoteTags:      hit.NoteTags,
			HeadingAnchor: hit.HeadingAnchor,
			Content:       hit.Content,
			Rank:          hit.Rank,
			Score:         hit.Score,
			LexicalRank:   hit.LexicalRank,
			VectorRank:    hit.VectorRank,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (f FiltersPayload) toStorage() storage.Filters {
	return storage.Filters{
		Archived:     f.Archived,
		Published:    f.Published,
		SharedByMe:   f.SharedByMe,
		SharedWithMe: f.SharedWithMe,
		TaskListNote: f.TaskListNote,
	}
}
