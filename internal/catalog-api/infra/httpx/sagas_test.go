package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/app"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/adapters/memstore"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog/sqlite"
)

type stubSagas struct {
	entries []*sagalog.SagaLog
}

func (s stubSagas) GetLatest(_ context.Context, sagaID string) (*sagalog.SagaLog, error) {
	if len(s.entries) == 0 {
		return nil, sagalog.ErrNotFound
	}
	return s.entries[len(s.entries)-1], nil
}

func (s stubSagas) History(context.Context, string) ([]*sagalog.SagaLog, error) {
	return s.entries, nil
}

func TestGetOrderSaga(t *testing.T) {
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "sagas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	products := memstore.NewProductRepository()
	settings := app.DefaultSettings()
	handler := NewHandler(
		app.NewProductService(products, settings),
		app.NewOrderService(products, memstore.NewOrderRepository(), repo, settings),
		memstore.Health{},
		"1.0.0",
		10,
	).WithSagaHistory(repo)
	router := NewRouter(handler, nil, time.Hour)

	call := func(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
		return rec, out
	}

	rec, product := call(http.MethodPost, "/products", map[string]any{"name": "Shirt", "price": 19.99, "stock_quantity": 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, order := call(http.MethodPost, "/orders", map[string]any{
		"user_id": "u1",
		"items":   []map[string]any{{"product_id": product["id"], "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, saga := call(http.MethodGet, "/orders/"+order["id"].(string)+"/saga", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, order["id"], saga["saga_id"])
	assert.Equal(t, "COMPLETED", saga["state"])
	entries := saga["entries"].([]any)
	require.NotEmpty(t, entries)
	assert.Equal(t, "STARTED", entries[0].(map[string]any)["status"])

	rec, _ = call(http.MethodGet, "/orders/"+entity.NewID()+"/saga", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out := call(http.MethodGet, "/orders/abc/saga", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", out["error"])
}

func TestSagaRouteDisabledWithoutHistory(t *testing.T) {
	products := memstore.NewProductRepository()
	settings := app.DefaultSettings()
	handler := NewHandler(
		app.NewProductService(products, settings),
		app.NewOrderService(products, memstore.NewOrderRepository(), nil, settings),
		memstore.Health{},
		"1.0.0",
		10,
	)

	rec := httptest.NewRecorder()
	NewRouter(handler, nil, time.Hour).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+entity.NewID()+"/saga", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderSaga_FailedTrail(t *testing.T) {
	id := entity.NewID()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := stubSagas{entries: []*sagalog.SagaLog{
		{SagaID: id, Status: sagalog.StatusStarted, ErrorMessages: "[]", UpdatedAt: at},
		{SagaID: id, Status: sagalog.StatusCompensating, CurrentStep: "Persist_Order_Step", ErrorMessages: `["step Persist_Order_Step failed: boom"]`, UpdatedAt: at},
		{SagaID: id, Status: sagalog.StatusFailed, CurrentStep: "Persist_Order_Step", ErrorMessages: `["step Persist_Order_Step failed: boom"]`, UpdatedAt: at},
	}}

	products := memstore.NewProductRepository()
	settings := app.DefaultSettings()
	handler := NewHandler(
		app.NewProductService(products, settings),
		app.NewOrderService(products, memstore.NewOrderRepository(), nil, settings),
		memstore.Health{},
		"1.0.0",
		10,
	).WithSagaHistory(history)

	rec := httptest.NewRecorder()
	NewRouter(handler, nil, time.Hour).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id+"/saga", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out SagaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "FAILED", out.State)
	require.Len(t, out.Entries, 3)
	assert.Empty(t, out.Entries[0].Errors)
	assert.Equal(t, []string{"step Persist_Order_Step failed: boom"}, out.Entries[2].Errors)
}
