// Package handler exposes device default preferences over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trivedidharmik/pinder/internal/prefs"
	"github.com/trivedidharmik/pinder/internal/transport/http/shared"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// Handler handles the /v1/preferences routes.
type Handler struct {
	store  prefs.Store
	logger *slog.Logger
}

func New(store prefs.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/preferences", h.handleGet)
	r.Put("/v1/preferences", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defaults, err := h.store.Defaults(ctx, requestcontext.DeviceID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "load preferences",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, defaults)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if p.DefaultRadiusMeters < 0 || p.DefaultSnoozeMinutes < 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "preference values must not be negative"))
		return
	}

	if err := h.store.Save(ctx, requestcontext.DeviceID(ctx), p); err != nil {
		h.logger.ErrorContext(ctx, "save preferences",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
