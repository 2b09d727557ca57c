package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys used in logging.
type ContextKey string

const (
	// RequestIDKey is the context key for request ID.
	RequestIDKey ContextKey = "request_id"
	// UserEmailKey is the context key for the email of the user being logged in.
	UserEmailKey ContextKey = "user_email"
)

// ContextHandler is an slog.Handler that copies request-scoped values
// (request ID, user email) from the context into every record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new context-aware handler that wraps another handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{
		handler: handler,
	}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context attributes to the record and passes it to the underlying handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if reqID, ok := GetRequestID(ctx); ok {
		r.AddAttrs(slog.String(string(RequestIDKey), reqID))
	}
	if email, ok := ctx.Value(UserEmailKey).(string); ok && email != "" {
		r.AddAttrs(slog.String(string(UserEmailKey), email))
	}

	return h.handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{
		handler: h.handler.WithGroup(name),
	}
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) (string, bool) {
	reqID, ok := ctx.Value(RequestIDKey).(string)
	return reqID, ok
}

// WithUserEmail tags the context with the email resolved from the Google profile.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserEmailKey, email)
}

// GenerateRequestID generates a new UUID-based request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}
