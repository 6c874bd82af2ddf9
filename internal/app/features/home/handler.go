// internal/app/features/home/handler.go
package home

import (
	"encoding/json"
	"net/http"
)

// Handler serves the API root: a small service banner clients and probes can
// hit without authentication.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"service": "medinotify",
		"status":  "ok",
	})
}
