// Package constants holds the header names and context keys shared by the
// HTTP middlewares and the gRPC interceptors.
package constants

// contextKey keeps these keys from colliding with string keys set by other
// packages.
type contextKey string

const (
	HeaderXRequestID      = "x-request-id"
	HeaderXIdempotencyKey = "x-idempotency-key"

	ContextKeyRequestID      contextKey = HeaderXRequestID
	ContextKeyIdempotencyKey contextKey = HeaderXIdempotencyKey
)
