package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/retrieval"
	"notes-retrieval/internal/service"
	"notes-retrieval/internal/service/mocks"
	"notes-retrieval/internal/storage"
)

func TestSearchHandler_ServeHTTP(t *testing.T) {
	archived := false

	tests := []struct {
		name          string
		method        string
		hybrid        bool
		body          any
		mockSetup     func(*mocks.MockSearchService)
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "vector search",
			method: http.MethodPost,
			body:   SearchRequest{Query: "tomatoes", Limit: 3, Filters: FiltersPayload{Archived: &archived}},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().
					Search(gomock.Any(), service.SearchRequest{
						Query:   "tomatoes",
						Limit:   3,
						Filters: storage.Filters{Archived: &archived},
					}).
					Return(service.SearchResponse{Mode: "vector", Results: []service.SearchHit{
						{PassageID: "garden.md#0", NoteID: "garden.md", NoteTitle: "Garden", Rank: 1, Score: 0.83},
					}}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp SearchResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.Mode != "vector" || len(resp.Results) != 1 || resp.Results[0].PassageID != "garden.md#0" {
					t.Errorf("unexpected response %+v", resp)
				}
			},
		},
		{
			name:   "hybrid search passes vector",
			method: http.MethodPost,
			hybrid: true,
			body:   SearchRequest{Query: "tomatoes", QueryVector: []float32{0.5, 0.5}},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().
					Search(gomock.Any(), service.SearchRequest{
						Query:       "tomatoes",
						Hybrid:      true,
						QueryVector: []float32{0.5, 0.5},
					}).
					Return(service.SearchResponse{Mode: "hybrid"}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp SearchResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.Results == nil {
					t.Error("results should encode as an empty array")
				}
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			mockSetup:  func(*mocks.MockSearchService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "invalid JSON body",
			method:     http.MethodPost,
			body:       "invalid json",
			mockSetup:  func(*mocks.MockSearchService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   SearchRequest{Query: ""},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).
					Return(service.SearchResponse{}, &service.ValidationError{Field: "query", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "not synced",
			method: http.MethodPost,
			body:   SearchRequest{Query: "tomatoes"},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).
					Return(service.SearchResponse{}, fmt.Errorf("%w: %w", service.ErrPrecondition, retrieval.ErrNotSynced))
			},
			wantStatus: http.StatusConflict,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !bytes.Contains(w.Body.Bytes(), []byte("run a sync first")) {
					t.Errorf("body %q should tell the user to sync", w.Body.String())
				}
			},
		},
		{
			name:   "embedding backend down",
			method: http.MethodPost,
			body:   SearchRequest{Query: "tomatoes"},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).
					Return(service.SearchResponse{}, fmt.Errorf("%w: boom", service.ErrExternalService))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:   "internal error",
			method: http.MethodPost,
			body:   SearchRequest{Query: "tomatoes"},
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).
					Return(service.SearchResponse{}, errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockSearchService(ctrl)
			tt.mockSetup(svc)
			handler := NewSearchHandler(svc, tt.hybrid)

			var body []byte
			switch b := tt.body.(type) {
			case nil:
			case string:
				body = []byte(b)
			default:
				body, _ = json.Marshal(b)
			}

			req := httptest.NewRequest(tt.method, "/api/search", bytes.NewReader(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestPassageHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockSearchService(ctrl)
	handler := NewPassageHandler(svc)

	svc.EXPECT().Passage(gomock.Any(), "notes/a.md#2").
		Return(indexer.Passage{ID: "notes/a.md#2", NoteID: "notes/a.md", Vector: []float32{1}}, nil)
	svc.EXPECT().Passage(gomock.Any(), "missing").
		Return(indexer.Passage{}, fmt.Errorf("%w: %w", service.ErrNotFound, storage.ErrNotFound))

	req := httptest.NewRequest(http.MethodGet, "/api/passage?id=notes%2Fa.md%232", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp PassageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "notes/a.md#2" || !resp.HasVector {
		t.Errorf("unexpected response %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/passage?id=missing", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/passage", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
