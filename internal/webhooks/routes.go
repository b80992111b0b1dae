package webhooks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(sink EventSink, calendarSecret string) http.Handler {
	r := chi.NewRouter()

	// Public routes, authenticated by payload signature
	r.Method(http.MethodPost, "/calendar", NewCalendarHandler(sink, calendarSecret))

	return r
}
