package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"notes-retrieval/internal/handlers"
	"notes-retrieval/internal/service"
	"notes-retrieval/internal/service/mocks"
)

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	searchSvc := mocks.NewMockSearchService(ctrl)
	syncSvc := mocks.NewMockSyncService(ctrl)

	syncSvc.EXPECT().Start(gomock.Any()).Return(nil).AnyTimes()
	syncSvc.EXPECT().Cancel().AnyTimes()
	syncSvc.EXPECT().Status(gomock.Any()).Return(service.Status{}, nil).AnyTimes()

	router := NewRouter(&Deps{
		SearchService: searchSvc,
		SyncService:   syncSvc,
		Health:        handlers.NewHealthHandler(func(context.Context) error { return nil }),
	})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "status", method: http.MethodGet, path: "/api/status", wantStatus: http.StatusOK},
		{name: "start sync", method: http.MethodPost, path: "/api/sync", wantStatus: http.StatusAccepted},
		{name: "cancel sync", method: http.MethodDelete, path: "/api/sync", wantStatus: http.StatusAccepted},
		{
			name:       "search route exists",
			method:     http.MethodPost,
			path:       "/api/search",
			body:       "not json",
			wantStatus: http.StatusBadRequest, // route exists, body rejected
		},
		{
			name:       "hybrid route exists",
			method:     http.MethodPost,
			path:       "/api/search/hybrid",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
		{name: "GET search not allowed", method: http.MethodGet, path: "/api/search", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/ask", wantStatus: http.StatusNotFound},
		{name: "preflight", method: http.MethodOptions, path: "/api/search", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Errorf("Router %s %s missing request id", tt.method, tt.path)
			}
		})
	}
}
