package middleware

import (
	"net/http"
	"time"
)

// Timeout cuts off handlers that outlive the configured request budget.
// Config validation guarantees the duration is positive.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
