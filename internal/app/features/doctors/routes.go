// internal/app/features/doctors/routes.go
package doctors

import (
	"github.com/go-chi/chi/v5"

	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
)

func Routes(h *Handler) chi.Router {
	admin := auth.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.With(admin).Post("/", h.HandleCreate)
	r.With(admin).Delete("/{id}", h.HandleDelete)
	return r
}
