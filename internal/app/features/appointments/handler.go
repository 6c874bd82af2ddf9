// internal/app/features/appointments/handler.go
package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	appointmentstore "github.com/medinotify/portal/internal/app/store/appointments"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"github.com/medinotify/portal/internal/domain/models"
)

type Handler struct {
	Store         *appointmentstore.Store
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

func NewHandler(store *appointmentstore.Store, notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Notifications: notifications, Log: logger}
}

type bookRequest struct {
	Doctor   string `json:"doctor"`
	TestType string `json:"testType"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// HandleBook handles POST /appointments (patients).
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Doctor == "" || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "doctor, date, and time are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Store.Create(ctx, models.Appointment{
		PatientID: user.ID,
		Doctor:    req.Doctor,
		TestType:  req.TestType,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		h.Log.Error("book appointment failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("appointment booked",
		zap.String("appointment_id", a.ID.Hex()),
		zap.String("patient_id", user.ID))
	writeJSON(w, http.StatusCreated, a)
}

// ServeMine handles GET /appointments: the patient's own bookings.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.ListByPatient(ctx, user.ID, 0)
	if err != nil {
		h.Log.Error("list appointments failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

// HandleCancel handles DELETE /appointments/{id}: a patient cancels their
// own pending booking.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Store.Cancel(ctx, id, user.ID)
	if errors.Is(err, appointmentstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no cancellable appointment found")
		return
	}
	if err != nil {
		h.Log.Error("cancel appointment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ServePending handles GET /appointments/pending (staff review queue).
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.ListByStatus(ctx, models.AppointmentPending, 0)
	if err != nil {
		h.Log.Error("list pending appointments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /appointments/{id}/status (staff confirm or
// decline). The patient gets an appointment notification either way.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Status != models.AppointmentConfirmed && req.Status != models.AppointmentDeclined {
		writeError(w, http.StatusBadRequest, `status must be "confirmed" or "declined"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, appointmentstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.Log.Error("load appointment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Store.SetStatus(ctx, id, req.Status); err != nil {
		h.Log.Error("set appointment status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Notify the patient. Best effort: the status change stands even if
	// the notification write fails.
	n := models.Notification{
		UserID:  a.PatientID,
		Title:   "Appointment " + req.Status,
		Message: "Your appointment with " + a.Doctor + " on " + a.Date + " has been " + req.Status + ".",
		Type:    models.NotificationTypeAppointment,
	}
	if _, err := h.Notifications.Insert(ctx, n); err != nil {
		h.Log.Warn("appointment notification failed",
			zap.String("appointment_id", id.Hex()),
			zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
