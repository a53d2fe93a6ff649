package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors/constants"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRequestIDUnaryInterceptor_PropagatesIncomingIDs(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		constants.HeaderXRequestID, "req-42",
		constants.HeaderXIdempotencyKey, "idem-1",
	))

	var seen context.Context
	_, err := RequestIDUnaryInterceptor()(ctx, nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = ctx
		return nil, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "req-42", RequestIDFromContext(seen))
	assert.Equal(t, "idem-1", seen.Value(constants.ContextKeyIdempotencyKey))
}

func TestRequestIDUnaryInterceptor_GeneratesMissingID(t *testing.T) {
	var seen context.Context
	_, err := RequestIDUnaryInterceptor()(context.Background(), nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = ctx
		return nil, nil
	})
	require.NoError(t, err)

	assert.Len(t, RequestIDFromContext(seen), 36)
	assert.Nil(t, seen.Value(constants.ContextKeyIdempotencyKey))
}

func TestLoggingUnaryInterceptor_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	resp, err := LoggingUnaryInterceptor()(context.Background(), "req", info, func(context.Context, interface{}) (interface{}, error) {
		return "resp", boom
	})
	assert.Equal(t, "resp", resp)
	assert.ErrorIs(t, err, boom)
}
