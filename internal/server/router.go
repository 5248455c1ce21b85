package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kontext-dev/kontext/internal/api"
	"github.com/kontext-dev/kontext/internal/api/handlers"
	"github.com/kontext-dev/kontext/internal/api/middleware"
	"github.com/kontext-dev/kontext/internal/vector"
)

type RouterConfig struct {
	KnowledgeHandler    *handlers.KnowledgeHandler
	ContinuationHandler *handlers.ContinuationHandler
	Index               *vector.Index
	EmbedderAvailable   bool
}

type healthResponse struct {
	Status   string       `json:"status"`
	Semantic bool         `json:"semantic_search"`
	Index    vector.Stats `json:"index"`
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Semantic: cfg.EmbedderAvailable}
		if cfg.Index != nil {
			resp.Index = cfg.Index.Stats()
		}
		api.Success(w, http.StatusOK, resp)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", cfg.KnowledgeHandler.Save)
			r.Get("/", cfg.KnowledgeHandler.List)
			r.Get("/summary", cfg.KnowledgeHandler.Summary)
			r.Get("/{id}", cfg.KnowledgeHandler.Get)
		})

		r.Post("/search", cfg.KnowledgeHandler.Search)
		r.Post("/classify", cfg.KnowledgeHandler.Classify)

		r.Route("/continuations", func(r chi.Router) {
			r.Post("/", cfg.ContinuationHandler.Save)
			r.Get("/", cfg.ContinuationHandler.List)
			r.Get("/latest", cfg.ContinuationHandler.Latest)
		})
	})

	return r
}
