// Package results serves lab results. Patients read their own; laboratory
// staff upload new ones. An upload also emits a result-created event so the
// patient is notified through the same pipeline as LIS-originated results.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	resultstore "github.com/medinotify/portal/internal/app/store/results"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/paging"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"github.com/medinotify/portal/internal/domain/models"
)

const defaultListLimit = 50

// Notifier delivers a result-created event. In production this is the AMQP
// broker; tests and broker-less deployments use DirectNotifier.
type Notifier interface {
	PublishResultCreated(ctx context.Context, evt provision.ResultCreated) error
}

// DirectNotifier runs the result handler in-process, bypassing the queue.
type DirectNotifier struct {
	Provisioner *provision.Provisioner
}

func (d DirectNotifier) PublishResultCreated(ctx context.Context, evt provision.ResultCreated) error {
	return d.Provisioner.HandleResultCreated(ctx, evt)
}

type Handler struct {
	Results   *resultstore.Store
	Accounts  *accountstore.Store
	Notifier  Notifier
	Log       *zap.Logger
	sanitizer *bluemonday.Policy
}

func NewHandler(results *resultstore.Store, accounts *accountstore.Store, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		Results:  results,
		Accounts: accounts,
		Notifier: notifier,
		Log:      logger,
		// Remarks come from staff but are rendered in patient browsers.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// ServeMine handles GET /results: the signed-in patient's own results.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Results.ListByPatient(ctx, user.ID, paging.Limit(r, defaultListLimit))
	if err != nil {
		h.Log.Error("list own results failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}

// ServeAll handles GET /results/all: recent results across patients (staff).
// Pass ?patientId= to narrow to one patient's history.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Result
		err  error
	)
	if patientID := r.URL.Query().Get("patientId"); patientID != "" {
		list, err = h.Results.ListByPatient(ctx, patientID, paging.Limit(r, defaultListLimit))
	} else {
		list, err = h.Results.ListRecent(ctx, paging.Limit(r, defaultListLimit))
	}
	if err != nil {
		h.Log.Error("list all results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}

type uploadRequest struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	TestName    string `json:"testName"`
	FileURL     string `json:"fileUrl"`
	Remarks     string `json:"remarks"`
}

// HandleUpload handles POST /results (staff only).
//
// The result record is written first; if the notification event fails
// afterwards, the upload still succeeds and the failure is logged. The
// record, not the notification, is the source of truth.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.PatientID == "" || req.TestName == "" {
		writeError(w, http.StatusBadRequest, "patientId and testName are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The patient must exist in the directory.
	patient, _, err := h.Accounts.FindByID(ctx, req.PatientID)
	if errors.Is(err, accountstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		h.Log.Error("upload: patient lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := models.Result{
		PatientID:   req.PatientID,
		PatientName: patient.DisplayName,
		TestName:    req.TestName,
		FileURL:     req.FileURL,
		Remarks:     h.sanitizer.Sanitize(req.Remarks),
		UploadedBy:  user.ID,
	}
	saved, err := h.Results.Create(ctx, result)
	if err != nil {
		h.Log.Error("upload: create result failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	evt := provision.ResultCreated{PatientID: saved.PatientID, TestName: saved.TestName}
	if err := h.Notifier.PublishResultCreated(ctx, evt); err != nil {
		h.Log.Error("upload: result event failed; patient not notified",
			zap.String("result_id", saved.ID.Hex()),
			zap.Error(err))
	}

	h.Log.Info("result uploaded",
		zap.String("result_id", saved.ID.Hex()),
		zap.String("patient_id", saved.PatientID),
		zap.String("uploaded_by", user.ID))
	writeJSON(w, http.StatusCreated, saved)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
