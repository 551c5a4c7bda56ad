// Package handler exposes the transition ingest endpoint device agents
// report geofence crossings to.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trivedidharmik/pinder/internal/reconcile"
	"github.com/trivedidharmik/pinder/internal/transport/http/shared"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// Handler handles POST /v1/transitions.
type Handler struct {
	ingestor reconcile.Ingestor
	logger   *slog.Logger
}

func New(ingestor reconcile.Ingestor, logger *slog.Logger) *Handler {
	return &Handler{ingestor: ingestor, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/transitions", h.handleIngest)
}

type transitionRequest struct {
	Kind       string    `json:"kind"`
	RegionIDs  []string  `json:"region_ids"`
	ErrorCode  string    `json:"error_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.ErrorCode == "" && len(req.RegionIDs) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "region_ids must not be empty"))
		return
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = requestcontext.Now(ctx)
	}

	event := reconcile.TransitionEvent{
		DeviceID:   requestcontext.DeviceID(ctx),
		Kind:       reconcile.TransitionKind(req.Kind),
		RegionIDs:  req.RegionIDs,
		ErrorCode:  req.ErrorCode,
		OccurredAt: occurredAt,
	}
	if err := h.ingestor.Ingest(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "ingest transition",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
