// internal/app/features/settings/routes.go
package settings

import (
	"github.com/go-chi/chi/v5"

	"github.com/medinotify/portal/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeSettings)
	r.Put("/", h.HandleUpdate)
	return r
}
