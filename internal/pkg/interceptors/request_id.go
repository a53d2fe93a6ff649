package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors/constants"
)

// RequestIDUnaryInterceptor copies the x-request-id and x-idempotency-key
// metadata into the context, generating a request id when the caller sent
// none, and echoes the request id back in the response header.
func RequestIDUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		requestID := GetMetadataValue(ctx, constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = WithRequestID(ctx, requestID)
		if key := GetMetadataValue(ctx, constants.HeaderXIdempotencyKey); key != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(constants.HeaderXRequestID, requestID))

		return handler(ctx, req)
	}
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

// RequestIDFromContext returns the request id set by the HTTP middleware or
// the gRPC interceptor, or "" when there is none.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeyRequestID).(string)
	return id
}

// GetMetadataValue returns the first incoming metadata value for key.
func GetMetadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(key); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
