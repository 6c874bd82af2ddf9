// internal/app/features/directory/routes.go
package directory

import (
	"github.com/go-chi/chi/v5"

	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn, auth.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeSummary)
	r.Get("/audit", h.ServeAudit)
	r.Get("/{collection}", h.ServeCollection)
	r.Post("/{collection}/{id}/status", h.HandleSetStatus)
	return r
}
