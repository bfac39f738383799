package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BuildRouter wires the handlers
func BuildRouter(api *API) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", api.Health)

	r.Route("/api", func(apiR chi.Router) {
		apiR.Route("/history", func(h chi.Router) {
			h.Get("/", api.History)
			h.Post("/refresh", api.Refresh)
		})
		apiR.Get("/account", api.GetAccount)
		apiR.Put("/account", api.SetAccount)
		apiR.Get("/counterparties", api.Counterparties)
	})

	return r
}
