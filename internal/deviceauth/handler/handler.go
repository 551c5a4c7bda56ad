// Package handler exposes device registration and push token routes.
// Registration is the one unauthenticated endpoint: a device presents its
// id and receives the bearer token every other route requires.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trivedidharmik/pinder/internal/deviceauth"
	"github.com/trivedidharmik/pinder/internal/transport/http/shared"
	dErrors "github.com/trivedidharmik/pinder/pkg/domain-errors"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// TokenRegistrar stores a device's push token for the notification
// presenter.
type TokenRegistrar interface {
	SetToken(ctx context.Context, deviceID, token string) error
}

// Handler handles the /v1/devices routes.
type Handler struct {
	auth     *deviceauth.Service
	tokens   TokenRegistrar
	tokenTTL time.Duration
	logger   *slog.Logger
}

func New(auth *deviceauth.Service, tokens TokenRegistrar, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// RegisterPublic mounts the unauthenticated registration route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/v1/devices/register", h.handleRegister)
}

// Register mounts the authenticated device routes.
func (h *Handler) Register(r chi.Router) {
	r.Put("/v1/devices/push-token", h.handlePushToken)
}

type registerRequest struct {
	DeviceID string `json:"device_id"`
}

type registerResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "device_id is required"))
		return
	}

	token, err := h.auth.GenerateToken(req.DeviceID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "generate device token",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register device"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, registerResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
	})
}

func (h *Handler) handlePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.tokens == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "push token storage not configured"))
		return
	}

	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token is required"))
		return
	}

	if err := h.tokens.SetToken(ctx, requestcontext.DeviceID(ctx), req.Token); err != nil {
		h.logger.ErrorContext(ctx, "store push token",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store push token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
