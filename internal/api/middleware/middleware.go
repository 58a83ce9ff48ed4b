// Package middleware provides HTTP middleware for Heimdall's API server.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Apply sets up the ambient middleware stack for the HTTP server.
func Apply(handler http.Handler) http.Handler {
	handler = chimw.RequestID(handler)
	handler = chimw.RealIP(handler)
	handler = RequestLogger(handler)
	handler = Recoverer(handler)
	handler = chimw.Timeout(30 * time.Second)(handler)
	handler = chimw.Compress(5)(handler)
	return handler
}
