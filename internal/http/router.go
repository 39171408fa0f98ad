package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notes-retrieval/internal/handlers"
	"notes-retrieval/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SearchService service.SearchService
	SyncService   service.SyncService
	Health        *handlers.HealthHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.SearchService, false)
	hybridHandler := handlers.NewSearchHandler(deps.SearchService, true)
	passageHandler := handlers.NewPassageHandler(deps.SearchService)
	syncHandler := handlers.NewSyncHandler(deps.SyncService)
	statusHandler := handlers.NewStatusHandler(deps.SyncService)

	r.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}
		r.Method(http.MethodGet, "/status", statusHandler)
		r.Method(http.MethodGet, "/passage", passageHandler)
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/search/hybrid", hybridHandler)
		r.Method(http.MethodPost, "/sync", syncHandler)
		r.Method(http.MethodDelete, "/sync", syncHandler)
	})

	return r
}
