package fieldops

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldline/ops-backend/internal/middleware"
)

func SetupRoutes(h *Handler, sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/jobs", h.ListJobs)
	r.Get("/candidates", h.GetCandidates)
	r.Get("/alerts", h.ListAlerts)

	// Crew routes, require a session
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))

		r.Post("/photos", h.CapturePhoto)
		r.Get("/photos/{photo_id}", h.GetPhoto)
		r.Post("/photos/{photo_id}/resolve", h.ResolvePhoto)
		r.Get("/context/today", h.TodayContext)

		r.Post("/alerts/scan", h.ScanAlerts)
		r.Patch("/alerts/{alert_id}/dismiss", h.DismissAlert)
	})

	return r
}
