package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests by IP over a one-minute window.
func RateLimit(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
