package ical

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/promowatch/promowatch/storage"
)

func Routes(events storage.Loader) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(events)
	r.Method(http.MethodGet, "/", h)
	r.Method(http.MethodGet, "/{type}", h)
	return r
}
