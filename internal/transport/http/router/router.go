package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/communityos/occurrence-service/internal/config"
	"github.com/communityos/occurrence-service/internal/transport/http/handlers"
	authmw "github.com/communityos/occurrence-service/internal/transport/http/middleware"
)

func New(
	h *handlers.OccurrencesHandler,
	reg *handlers.RegistrationsHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)

	if cfg.RLEnabled {
		r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
	}

	r.Get("/healthz", z.Healthz)

	r.Route("/occurrence/v1", func(r chi.Router) {
		r.Get("/occurrences/{occurrence_id}", h.Get)
		r.Get("/series/{series_id}", h.GetSeries)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/occurrences", h.Create)
			r.Post("/series", h.CreateSeries)
			r.Post("/occurrences/{occurrence_id}/series", h.ConvertToSeries)
			r.Patch("/occurrences/{occurrence_id}", h.Update)
			r.Delete("/occurrences/{occurrence_id}", h.Delete)

			r.Put("/occurrences/{occurrence_id}/rsvp", reg.Rsvp)
			r.Delete("/occurrences/{occurrence_id}/rsvp", reg.CancelRsvp)
			r.Get("/occurrences/{occurrence_id}/rsvp", reg.GetRsvp)
		})
	})

	return r
}
