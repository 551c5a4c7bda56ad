package testutil

import (
	"net/http"
	"time"

	"github.com/trivedidharmik/pinder/pkg/requestcontext"
)

// WithDevice adds a device ID to the request context, simulating what the
// device auth middleware does for authenticated requests.
func WithDevice(req *http.Request, deviceID string) *http.Request {
	return req.WithContext(requestcontext.WithDeviceID(req.Context(), deviceID))
}

// WithRequestTime pins the request-scoped time, simulating the request
// time middleware.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
