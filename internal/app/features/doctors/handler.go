// internal/app/features/doctors/handler.go
package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	doctorstore "github.com/medinotify/portal/internal/app/store/doctors"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"github.com/medinotify/portal/internal/domain/models"
)

type Handler struct {
	Store *doctorstore.Store
	Log   *zap.Logger
}

func NewHandler(store *doctorstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

// ServeList handles GET /doctors: the active directory patients pick from
// when booking. Admins pass ?all=1 to include inactive entries.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	activeOnly := r.URL.Query().Get("all") == ""
	list, err := h.Store.List(ctx, activeOnly)
	if err != nil {
		h.Log.Error("list doctors failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": list})
}

type createRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// HandleCreate handles POST /doctors (admin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Store.Create(ctx, models.Doctor{Name: req.Name, Specialty: req.Specialty})
	if err != nil {
		h.Log.Error("create doctor failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// HandleDelete handles DELETE /doctors/{id} (admin only).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Store.Delete(ctx, id)
	if errors.Is(err, doctorstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "doctor not found")
		return
	}
	if err != nil {
		h.Log.Error("delete doctor failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
