package users

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/users", h.Lookup)
	r.Post("/users/link", h.Link)
}
