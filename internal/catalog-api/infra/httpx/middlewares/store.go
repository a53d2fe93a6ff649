package middlewares

import (
	"net/http"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

// RequireStore answers 503 store_unavailable while the document store is
// disconnected, before any handler touches it.
func RequireStore(store ports.StoreHealth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Available() {
				writeMiddlewareError(w, http.StatusServiceUnavailable, "store_unavailable", "the document store is not available")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
