// internal/app/features/hooks/routes.go
package hooks

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/account-created", h.HandleAccountCreated)
	r.Post("/result-created", h.HandleResultCreated)
	return r
}
