package resilience

import (
	"context"
	"errors"
	"net/http"
)

// statusCoder is implemented by provider errors that carry an HTTP status
// (gemini.APIError, anthropic.APIError).
type statusCoder interface {
	HTTPStatus() int
}

// Trips reports whether err indicates an unhealthy provider. Caller
// cancellation and 4xx responses other than 408 and 429 do not count.
func Trips(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return IsServerSideStatus(sc.HTTPStatus())
	}
	return true
}

// IsServerSideStatus reports whether code points at the provider rather than
// the request.
func IsServerSideStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
