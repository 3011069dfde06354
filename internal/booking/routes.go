package booking

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/payment-callback", h.PaymentCallback)
	r.Post("/generate-payment-link", h.GeneratePaymentLink)
	r.Post("/update-room-availability", h.UpdateRoomAvailability)

	r.Get("/rooms", h.ListRooms)
	r.Put("/rooms/{id}/availability", h.SetRoomAvailability)

	r.Post("/bookings/{id}/check-out", h.CheckOut)
	r.Post("/bookings/{id}/cancel", h.Cancel)
}
