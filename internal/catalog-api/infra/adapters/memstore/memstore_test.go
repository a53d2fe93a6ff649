package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

func intPtr(v int) *int { return &v }

func seedProducts(t *testing.T, repo *ProductRepository, products ...*entity.Product) {
	t.Helper()
	for _, p := range products {
		require.NoError(t, repo.Insert(context.Background(), p))
	}
}

func TestProductRepository_DecrementStockIsConditional(t *testing.T) {
	repo := NewProductRepository()
	p := &entity.Product{Name: "Shirt", Price: 19.99, StockQuantity: intPtr(3)}
	seedProducts(t, repo, p)
	ctx := context.Background()
	now := time.Now().UTC()

	ok, left, err := repo.DecrementStock(ctx, p.ID, 2, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, left)

	ok, available, err := repo.DecrementStock(ctx, p.ID, 2, now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, available)

	require.NoError(t, repo.RestoreStock(ctx, p.ID, 2, now))
	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.StockQuantity)
}

func TestProductRepository_UntrackedStockIsNeverDecremented(t *testing.T) {
	repo := NewProductRepository()
	p := &entity.Product{Name: "Gift card", Price: 10}
	seedProducts(t, repo, p)

	ok, _, err := repo.DecrementStock(context.Background(), p.ID, 100, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StockQuantity)
}

func TestProductRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := NewProductRepository()
	seedProducts(t, repo,
		&entity.Product{Name: "Blue Shirt", Price: 20, Size: "M", Category: "Apparel", StockQuantity: intPtr(5)},
		&entity.Product{Name: "red shirt", Price: 25, Size: "L", Category: "apparel", StockQuantity: intPtr(0)},
		&entity.Product{Name: "Mug", Price: 8, Size: "M", Category: "Kitchen"},
	)
	ctx := context.Background()
	page := entity.PageRequest{Limit: 10}

	got, err := repo.List(ctx, entity.ProductFilter{Name: "SHIRT"}, page)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	inStock := true
	got, err = repo.List(ctx, entity.ProductFilter{InStock: &inStock}, page)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Blue Shirt", got[0].Name)

	maxPrice := 21.0
	n, err := repo.Count(ctx, entity.ProductFilter{Size: "M", MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err = repo.List(ctx, entity.ProductFilter{}, entity.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.List(ctx, entity.ProductFilter{}, entity.PageRequest{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProductRepository_ReturnsCopies(t *testing.T) {
	repo := NewProductRepository()
	p := &entity.Product{Name: "Shirt", Price: 19.99, Attributes: map[string]string{"color": "blue"}}
	seedProducts(t, repo, p)

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	got.Attributes["color"] = "red"

	again, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "blue", again.Attributes["color"])
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, user := range []string{"u1", "u2", "u1"} {
		require.NoError(t, repo.Insert(ctx, &entity.Order{
			UserID:    user,
			Status:    entity.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := repo.List(ctx, entity.OrderFilter{UserID: "u1"}, entity.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
}

func TestOrderRepository_UpdateStatusAppendsHistory(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	o := &entity.Order{UserID: "u1", Status: entity.StatusPending}
	require.NoError(t, repo.Insert(ctx, o))

	at := time.Now().UTC()
	got, err := repo.UpdateStatus(ctx, o.ID, entity.StatusChange{Status: entity.StatusShipped, Reason: "carrier pickup", Timestamp: at})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, got.Status)
	assert.Equal(t, at, got.UpdatedAt)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, "carrier pickup", got.StatusHistory[0].Reason)

	_, err = repo.UpdateStatus(ctx, entity.NewID(), entity.StatusChange{Status: entity.StatusShipped})
	var nf *entity.NotFoundError
	require.ErrorAs(t, err, &nf)
}
