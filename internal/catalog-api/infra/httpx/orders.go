package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors/constants"
)

// CreateOrder runs the order transaction. Totals are always computed on the
// server from the catalog.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	idempKey, _ := r.Context().Value(constants.ContextKeyIdempotencyKey).(string)
	slog.InfoContext(r.Context(), "creating order",
		"idempotency_key", idempKey,
		"user_id", req.UserID,
		"items", len(req.Items),
	)

	order, err := h.orders.CreateOrder(r.Context(), req.toEntity())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.pageFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "user_id")
	filter := entity.OrderFilter{
		UserID: userID,
		Status: entity.OrderStatus(r.URL.Query().Get("status")),
	}

	result, err := h.orders.ListUserOrders(r.Context(), filter, page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	orders := make([]OrderResponse, len(result.Items))
	for i, o := range result.Items {
		orders[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, OrderListResponse{
		Orders:  orders,
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		UserID:  userID,
		HasMore: result.HasMore(),
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), entity.UpdateStatusRequest{
		OrderID: chi.URLParam(r, "order_id"),
		Status:  req.Status,
		Reason:  req.Reason,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}
