package complaint

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/complaints", h.List)
	r.Patch("/complaints/{id}/status", h.UpdateStatus)
}
