// Package clients holds the HTTP clients for every service boundary. Each
// subpackage mirrors one service surface; this package carries the shared
// transport setup.
package clients

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient builds the instrumented client used by all service clients.
// A zero timeout means no client-side deadline; streaming exchanges pass
// zero and rely on context cancellation instead.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}
