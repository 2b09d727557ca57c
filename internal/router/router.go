// Package router sets up and configures the HTTP router and all API endpoints.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/gyeo009/lookback-Backend/internal/auth"
	"github.com/gyeo009/lookback-Backend/internal/middleware"
)

// Version is set at build time with -ldflags "-X .../internal/router.Version=...".
var Version = "dev"

// Dependencies holds all the dependencies needed to create routes.
type Dependencies struct {
	AuthHandler    *auth.Handler
	AllowedOrigins []string
}

// Router is the API handler plus the limiters it owns.
type Router struct {
	http.Handler
	limiters []*RateLimiter
}

// Close stops the rate limiter cleanup goroutines.
func (rt *Router) Close() {
	for _, l := range rt.limiters {
		l.Stop()
	}
}

// New creates a new HTTP handler with all routes configured.
func New(deps *Dependencies) *Router {
	mux := http.NewServeMux()

	// login does three Google round trips per call; limit it harder than the rest
	loginLimiter := NewRateLimiter(rate.Limit(2), 10)
	globalRateLimiter := NewRateLimiter(rate.Limit(100), 100)

	registerUtilityRoutes(mux)

	if deps.AuthHandler != nil {
		mux.Handle("POST /login", loginLimiter.LimitByIP(http.HandlerFunc(deps.AuthHandler.HandleLogin)))
	}

	var handler http.Handler = mux

	// Apply request ID middleware first
	handler = middleware.RequestIDMiddleware(handler)

	handler = globalRateLimiter.LimitByIP(handler)

	handler = middleware.SecurityHeadersMiddleware(handler)

	// Log all HTTP requests with status codes
	handler = middleware.AccessLogger(handler)

	handler = middleware.CorsMiddleware(handler, deps.AllowedOrigins)

	// Add OpenTelemetry instrumentation
	handler = otelhttp.NewHandler(handler, "lookback-api")

	return &Router{
		Handler:  handler,
		limiters: []*RateLimiter{loginLimiter, globalRateLimiter},
	}
}

// registerUtilityRoutes adds health, version, and metrics routes.
func registerUtilityRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /version", handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// handleHealth responds to health check requests.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleVersion responds with the API version.
func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"version": Version, "api": "lookback"})
}
