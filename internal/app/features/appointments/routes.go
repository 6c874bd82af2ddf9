// internal/app/features/appointments/routes.go
package appointments

import (
	"github.com/go-chi/chi/v5"

	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	staff := auth.RequireRole(models.RoleAdmin, models.RoleMedicalTechnologist, models.RolePathologist)

	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeMine)
	r.Post("/", h.HandleBook)
	r.Delete("/{id}", h.HandleCancel)
	r.With(staff).Get("/pending", h.ServePending)
	r.With(staff).Post("/{id}/status", h.HandleSetStatus)
	return r
}
