package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata copies the chi request id and the idempotency key
// header into the typed context keys read by the logger and the handlers,
// and echoes the request id back to the client. It must run after
// middleware.RequestID.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		ctx := interceptors.WithRequestID(r.Context(), requestID)
		if idempotencyKey != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
		}
		if requestID != "" {
			w.Header().Set(constants.HeaderXRequestID, requestID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
