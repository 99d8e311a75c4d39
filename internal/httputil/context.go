package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey contextKey = "userID"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(ContextWithUserID(r.Context(), userID))
}

// ContextWithUserID returns ctx carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves userID from context, returns empty string if not found
// (authentication disabled).
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
