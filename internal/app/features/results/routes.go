// internal/app/features/results/routes.go
package results

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
	r.With(staff).Get("/all", h.ServeAll)
	r.With(staff).Post("/", h.HandleUpload)
	return r
}
