package mongostore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/config"
)

func TestProductQuery(t *testing.T) {
	minPrice, maxPrice := 5.0, 50.0
	inStock := true

	q := productQuery(entity.ProductFilter{
		Name:     "t.shirt",
		Size:     "M",
		Brand:    "Acme",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		InStock:  &inStock,
	})

	assert.Equal(t, primitive.Regex{Pattern: `t\.shirt`, Options: "i"}, q["name"])
	assert.Equal(t, "M", q["size"])
	assert.Equal(t, primitive.Regex{Pattern: "Acme", Options: "i"}, q["brand"])
	assert.Equal(t, bson.M{"$gte": 5.0, "$lte": 50.0}, q["price"])
	assert.Equal(t, bson.M{"$gt": 0}, q["stock_quantity"])
	assert.NotContains(t, q, "category")

	assert.Empty(t, productQuery(entity.ProductFilter{}))
}

func TestProductSet_AlwaysTouchesUpdatedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{"updated_at": now}, productSet(entity.ProductUpdate{}, now))

	name, stock := "New", 0
	set := productSet(entity.ProductUpdate{Name: &name, StockQuantity: &stock}, now)
	assert.Equal(t, "New", set["name"])
	assert.Equal(t, 0, set["stock_quantity"])
	assert.NotContains(t, set, "price")
}

func TestOrderDoc_KeepsSnapshotAndHistory(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &entity.Order{
		ID:     entity.NewID(),
		UserID: "u1",
		Items: []entity.OrderLineItem{
			{ProductID: entity.NewID(), ProductName: "Shirt", Quantity: 2, PricePerItem: 19.99, TotalPrice: 39.98},
		},
		TotalAmount:     39.98,
		Status:          entity.StatusPending,
		ShippingAddress: &entity.ShippingAddress{Street: "1 Main St", City: "Springfield", Country: "US"},
		PaymentMethod:   entity.PaymentCOD,
		StatusHistory:   []entity.StatusChange{{Status: entity.StatusPending, Timestamp: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	doc, err := toOrderDoc(o)
	require.NoError(t, err)
	assert.Equal(t, o, doc.toEntity())

	o.Items[0].ProductID = "bogus"
	_, err = toOrderDoc(o)
	var ve *entity.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// connectTest returns a store against MONGODB_TEST_URL (or a local server)
// and skips the test when none is reachable.
func connectTest(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		url = "mongodb://localhost:27017"
	}
	cfg := config.Default().Mongo
	cfg.URL = url
	cfg.Database = fmt.Sprintf("catalog_test_%d", time.Now().UnixNano())
	cfg.ServerSelectionTimeout = 500 * time.Millisecond
	cfg.ConnectTimeout = 500 * time.Millisecond

	ctx := context.Background()
	store, err := Connect(ctx, cfg)
	require.NoError(t, err)
	if !store.Available() {
		_ = store.Disconnect(ctx)
		t.Skip("Skipping MongoDB integration test: mongod not available")
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Disconnect(context.Background())
	})
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestProductRepository_Integration(t *testing.T) {
	store := connectTest(t)
	repo := store.Products()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	stock := 3
	p := &entity.Product{ID: entity.NewID(), Name: "Shirt", Price: 19.99, Size: "M", StockQuantity: &stock, CreatedAt: now, UpdatedAt: now}
	untracked := &entity.Product{ID: entity.NewID(), Name: "Poster", Price: 5, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Insert(ctx, p))
	require.NoError(t, repo.Insert(ctx, untracked))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	ok, left, err := repo.DecrementStock(ctx, p.ID, 2, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, left)

	ok, left, err = repo.DecrementStock(ctx, p.ID, 2, now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, left)

	ok, _, err = repo.DecrementStock(ctx, untracked.ID, 50, now)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.RestoreStock(ctx, p.ID, 2, now))
	got, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.StockQuantity)

	name := "shirt"
	n, err := repo.Count(ctx, entity.ProductFilter{Name: name})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.FindByID(ctx, entity.NewID())
	var nf *entity.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProductRepository_ConcurrentDecrementNeverOversells(t *testing.T) {
	store := connectTest(t)
	repo := store.Products()
	ctx := context.Background()
	now := time.Now().UTC()

	stock := 5
	p := &entity.Product{ID: entity.NewID(), Name: "Limited", Price: 1, StockQuantity: &stock, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Insert(ctx, p))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := repo.DecrementStock(ctx, p.ID, 1, now)
			if err == nil && ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *got.StockQuantity)
}

func TestOrderRepository_Integration(t *testing.T) {
	store := connectTest(t)
	repo := store.Orders()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	var ids []string
	for i := 0; i < 3; i++ {
		o := &entity.Order{
			ID:          entity.NewID(),
			UserID:      "u1",
			Items:       []entity.OrderLineItem{{ProductID: entity.NewID(), ProductName: "Shirt", Quantity: 1, PricePerItem: 10, TotalPrice: 10}},
			TotalAmount: 10,
			Status:      entity.StatusPending,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base,
		}
		require.NoError(t, repo.Insert(ctx, o))
		ids = append(ids, o.ID)
	}

	list, err := repo.List(ctx, entity.OrderFilter{UserID: "u1"}, entity.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	updated, err := repo.UpdateStatus(ctx, ids[0], entity.StatusChange{Status: entity.StatusShipped, Reason: "carrier pickup", Timestamp: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, updated.Status)
	require.Len(t, updated.StatusHistory, 1)
	assert.Equal(t, "carrier pickup", updated.StatusHistory[0].Reason)

	n, err := repo.Count(ctx, entity.OrderFilter{UserID: "u1", Status: entity.StatusShipped})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err = repo.FindByID(ctx, ids[1])
	var nf *entity.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestStore_PingCreatesIndexesOnceReachable(t *testing.T) {
	store := connectTest(t)
	ctx := context.Background()

	// simulate a server that was unreachable at startup
	require.NoError(t, store.db.Drop(ctx))
	store.indexed.Store(false)

	require.NoError(t, store.Ping(ctx))
	assert.True(t, store.indexed.Load())

	cur, err := store.db.Collection(productsCollection).Indexes().List(ctx)
	require.NoError(t, err)
	var specs []bson.M
	require.NoError(t, cur.All(ctx, &specs))

	names := make([]string, 0, len(specs))
	for _, idx := range specs {
		names = append(names, idx["name"].(string))
	}
	assert.Contains(t, names, "name_1")
	assert.Contains(t, names, "brand_1")
}
