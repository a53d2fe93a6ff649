package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

const maxBodyBytes = 1 << 20

// Handler serves the catalog and order endpoints on top of the application
// services.
type Handler struct {
	products        ports.ProductService
	orders          ports.OrderService
	store           ports.StoreHealth
	sagas           SagaHistory
	version         string
	defaultPageSize int
	now             func() time.Time
}

func NewHandler(products ports.ProductService, orders ports.OrderService, store ports.StoreHealth, version string, defaultPageSize int) *Handler {
	return &Handler{
		products:        products,
		orders:          orders,
		store:           store,
		version:         version,
		defaultPageSize: defaultPageSize,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message:   "E-commerce catalog API",
		Version:   h.version,
		Docs:      "/docs",
		Health:    "/health",
		Status:    "running",
		Timestamp: h.now(),
	})
}

// Health re-pings the store, which also refreshes the availability state
// the data endpoints are gated on. It always answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: h.now(),
		Version:   h.version,
	}
	if err := h.store.Ping(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "health check: store unreachable", "error", err)
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (h *Handler) pageFromQuery(r *http.Request) (entity.PageRequest, error) {
	page := entity.PageRequest{Limit: h.defaultPageSize}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, entity.NewValidationError("limit", "must be an integer")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, entity.NewValidationError("offset", "must be an integer")
		}
		page.Offset = n
	}
	return page, nil
}

func floatQuery(r *http.Request, name string) (*float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, entity.NewValidationError(name, "must be a number")
	}
	return &f, nil
}

func boolQuery(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, entity.NewValidationError(name, "must be true or false")
	}
	return &b, nil
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *entity.ValidationError
		nf  *entity.NotFoundError
		ise *entity.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: ve.Error(), Field: ve.Field})
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("%s %s not found", nf.Resource, nf.ID))
	case errors.As(err, &ise):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     "insufficient_stock",
			Message:   ise.Error(),
			ProductID: ise.ProductID,
			Available: &ise.Available,
			Requested: &ise.Requested,
		})
	case errors.Is(err, entity.ErrStoreUnavailable):
		slog.ErrorContext(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the document store is not available")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
