package types

import "context"

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxUserID    ContextKey = "ctx_user_id"

	// DefaultUserID is used for writes performed by background jobs where no
	// operator is present (e.g. the expiration sweep).
	DefaultUserID = "system"
)

// GetRequestID returns the request ID from the context or an empty string
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID returns the acting user ID from the context or the system default
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok && userID != "" {
		return userID
	}
	return DefaultUserID
}

// SetRequestID returns a child context carrying the request ID
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// SetUserID returns a child context carrying the acting user ID
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}
