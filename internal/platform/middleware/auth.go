package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/trivedidharmik/pinder/internal/deviceauth"
	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// TokenValidator validates a device bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*deviceauth.Claims, error)
}

// RequireDeviceAuth rejects requests without a valid device token and
// puts the device id on the request context.
func RequireDeviceAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				unauthorized(w, r, logger, "missing token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid device token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid token")
				return
			}
			ctx := requestcontext.WithDeviceID(r.Context(), claims.DeviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized"}`)); err != nil {
		logger.ErrorContext(r.Context(), "write unauthorized response",
			"error", err, "reason", reason)
	}
}
