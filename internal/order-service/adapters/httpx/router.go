package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/orders", handler.CreateDraftOrder)
	r.Get("/orders/{id}", handler.GetOrder)
	r.Get("/orders/{id}/events", handler.ListEvents)
	r.Post("/orders/{id}/notes", handler.AddNote)
	r.Post("/orders/{id}/fulfillments", handler.CreateFulfillment)
	r.Post("/orders/{id}/fulfillments/{fulfillmentID}/tracking", handler.UpdateFulfillmentTracking)
	r.Post("/orders/{id}/fulfillments/{fulfillmentID}/cancel", handler.CancelFulfillment)
	return r
}
