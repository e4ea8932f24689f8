package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"carwash-backend/internal/attendant"
	"carwash-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	bay     *attendant.Service
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(bay *attendant.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		bay:     bay,
		store:   s,
		webpush: webpushOptions,
	}
}
