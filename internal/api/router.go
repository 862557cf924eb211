package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Settings are the server-wide limits and defaults applied to every request.
type Settings struct {
	MaxUploadBytes int64
	// ProximityTolerance and CommissionRate fill options a request leaves
	// at zero.
	ProximityTolerance float64
	CommissionRate     float64
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(reconciler Reconciler, logger *slog.Logger, settings Settings) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		reconciler: reconciler,
		logger:     logger,
		settings:   settings,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reconcile", h.Reconcile)
		r.Post("/reconcile/export", h.ReconcileExport)
		r.Post("/reconcile/upload", h.ReconcileUpload)
	})

	return r
}
