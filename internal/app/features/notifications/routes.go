// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"

	"github.com/medinotify/portal/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/unread-count", h.ServeUnreadCount)
	r.Post("/read-all", h.HandleMarkAllRead)
	r.Post("/{id}/read", h.HandleMarkRead)
	r.Post("/{id}/unread", h.HandleMarkUnread)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
