package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
)

// SagaHistory reads back the transitions recorded for an order-creation saga.
// GetLatest returns sagalog.ErrNotFound for an unknown saga.
type SagaHistory interface {
	GetLatest(ctx context.Context, sagaID string) (*sagalog.SagaLog, error)
	History(ctx context.Context, sagaID string) ([]*sagalog.SagaLog, error)
}

type SagaEntryResponse struct {
	Status      string    `json:"status"`
	CurrentStep string    `json:"current_step,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	SpanID      string    `json:"span_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SagaResponse struct {
	SagaID  string              `json:"saga_id"`
	State   string              `json:"state"`
	Entries []SagaEntryResponse `json:"entries"`
}

// WithSagaHistory enables GET /orders/{order_id}/saga.
func (h *Handler) WithSagaHistory(history SagaHistory) *Handler {
	h.sagas = history
	return h
}

// GetOrderSaga returns the audit trail of the saga that created an order.
// The saga shares the order's identity, so failed attempts are visible too.
func (h *Handler) GetOrderSaga(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "order_id")
	if !entity.ValidID(id) {
		writeDomainError(w, r, entity.InvalidIDError("order", id))
		return
	}

	latest, err := h.sagas.GetLatest(r.Context(), id)
	if errors.Is(err, sagalog.ErrNotFound) {
		writeDomainError(w, r, entity.NewNotFoundError("saga", id))
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	entries, err := h.sagas.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := SagaResponse{
		SagaID:  id,
		State:   string(latest.Status),
		Entries: make([]SagaEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = SagaEntryResponse{
			Status:      string(e.Status),
			CurrentStep: e.CurrentStep,
			TraceID:     e.TraceID,
			SpanID:      e.SpanID,
			UpdatedAt:   e.UpdatedAt,
		}
		// malformed lists are left empty
		_ = json.Unmarshal([]byte(e.ErrorMessages), &resp.Entries[i].Errors)
	}
	writeJSON(w, http.StatusOK, resp)
}
