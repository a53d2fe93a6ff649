package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/httpx/middlewares"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/cache"
)

// NewRouter mounts every endpoint. Data endpoints are gated on store
// availability; idempotent replay is enabled only when idem is non-nil and
// the saga audit route only when the handler has a saga history.
func NewRouter(handler *Handler, idem cache.Cache, idemTTL time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireStore(handler.store))
		if idem != nil {
			r.Use(middlewares.Idempotency(idem, idemTTL))
		}

		r.Route("/products", func(r chi.Router) {
			r.Post("/", handler.CreateProduct)
			r.Get("/", handler.ListProducts)
			r.Get("/{product_id}", handler.GetProduct)
			r.Put("/{product_id}", handler.UpdateProduct)
			r.Delete("/{product_id}", handler.DeleteProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handler.CreateOrder)
			r.Get("/detail/{order_id}", handler.GetOrder)
			r.Get("/{user_id}", handler.ListUserOrders)
			r.Patch("/{order_id}/status", handler.UpdateOrderStatus)
			if handler.sagas != nil {
				r.Get("/{order_id}/saga", handler.GetOrderSaga)
			}
		})
	})

	return otelhttp.NewHandler(r, "catalog-api")
}
