package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/chat", h.Chat).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/rebuild-index", h.RebuildIndex).Methods(http.MethodPost)

	return r
}
