// Package handler exposes the reminder API over HTTP. It stays transport
// only: decode, authorize against the device on the token, delegate.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trivedidharmik/pinder/internal/reminder/models"
	"github.com/trivedidharmik/pinder/internal/transport/http/shared"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// Service defines the reminder operations the handler needs.
type Service interface {
	Create(ctx context.Context, reminder models.Reminder) (models.Reminder, error)
	Get(ctx context.Context, id int64) (models.Reminder, error)
	List(ctx context.Context, deviceID string) ([]models.Reminder, error)
	Update(ctx context.Context, reminder models.Reminder) (models.Reminder, error)
	Delete(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	Snooze(ctx context.Context, id int64, delay time.Duration) error
}

// Handler handles the /v1/reminders routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the reminder routes. The surrounding router applies the
// shared middleware chain including device auth.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/reminders", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/complete", h.handleComplete)
			r.Post("/snooze", h.handleSnooze)
		})
	})
}

type reminderRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RadiusM     float64 `json:"radius_m"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
}

type snoozeRequest struct {
	DelayMinutes int `json:"delay_minutes"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	reminder, err := h.reminderFromRequest(ctx, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	created, err := h.service.Create(ctx, reminder)
	if err != nil {
		h.logError(ctx, "create reminder", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminders, err := h.service.List(ctx, requestcontext.DeviceID(ctx))
	if err != nil {
		h.logError(ctx, "list reminders", err)
		shared.WriteError(w, err)
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	shared.WriteJSON(w, http.StatusOK, reminders)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminder, err := h.owned(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reminder)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	existing, err := h.owned(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	reminder, err := h.reminderFromRequest(ctx, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reminder.ID = existing.ID

	updated, err := h.service.Update(ctx, reminder)
	if err != nil {
		h.logError(ctx, "update reminder", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminder, err := h.owned(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, reminder.ID); err != nil {
		h.logError(ctx, "delete reminder", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminder, err := h.owned(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Complete(ctx, reminder.ID); err != nil {
		h.logError(ctx, "complete reminder", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSnooze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reminder, err := h.owned(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// An empty body means "use the device default delay".
	var req snoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.DelayMinutes < 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "delay_minutes must not be negative"))
		return
	}

	delay := time.Duration(req.DelayMinutes) * time.Minute
	if err := h.service.Snooze(ctx, reminder.ID, delay); err != nil {
		h.logError(ctx, "snooze reminder", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// owned resolves the {id} route param and checks the reminder belongs to
// the authenticated device. Foreign reminders read as not found so the
// API does not leak their existence.
func (h *Handler) owned(ctx context.Context, r *http.Request) (models.Reminder, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return models.Reminder{}, dErrors.New(dErrors.CodeInvalidInput, "invalid reminder id")
	}
	reminder, err := h.service.Get(ctx, id)
	if err != nil {
		return models.Reminder{}, err
	}
	if reminder.DeviceID != requestcontext.DeviceID(ctx) {
		return models.Reminder{}, dErrors.New(dErrors.CodeNotFound, "reminder not found")
	}
	return reminder, nil
}

func (h *Handler) reminderFromRequest(ctx context.Context, req reminderRequest) (models.Reminder, error) {
	geofenceType, err := models.ParseGeofenceType(req.Type)
	if err != nil {
		return models.Reminder{}, err
	}
	priority := models.PriorityMedium
	if req.Priority != "" {
		if priority, err = models.ParsePriority(req.Priority); err != nil {
			return models.Reminder{}, err
		}
	}
	return models.Reminder{
		DeviceID:    requestcontext.DeviceID(ctx),
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		RadiusM:     req.RadiusM,
		Type:        geofenceType,
		Priority:    priority,
	}, nil
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	h.logger.ErrorContext(ctx, op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
