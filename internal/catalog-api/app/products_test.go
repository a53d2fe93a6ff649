package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/adapters/memstore"
)

func newProductService(t *testing.T) (*ProductService, *time.Time) {
	t.Helper()
	clock := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewProductService(memstore.NewProductRepository(), DefaultSettings())
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func strPtr(s string) *string { return &s }

func TestProductService_CreateAssignsIdentityAndTimestamps(t *testing.T) {
	svc, clock := newProductService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, entity.NewProduct{Name: "Shirt", Price: 19.99, Size: "M", StockQuantity: stock(10)})
	require.NoError(t, err)

	assert.True(t, entity.ValidID(p.ID))
	assert.Equal(t, *clock, p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Name)
	assert.Equal(t, 10, *got.StockQuantity)
}

func TestProductService_CreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newProductService(t)

	cases := map[string]entity.NewProduct{
		"missing name":      {Price: 1},
		"long name":         {Name: strings.Repeat("x", 201), Price: 1},
		"zero price":        {Name: "Hat"},
		"short description": {Name: "Hat", Price: 1, Description: "short"},
		"negative stock":    {Name: "Hat", Price: 1, StockQuantity: stock(-1)},
		"too many images":   {Name: "Hat", Price: 1, Images: make([]string, 11)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), in)
			var ve *entity.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestProductService_UpdateLeavesOmittedFields(t *testing.T) {
	svc, clock := newProductService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, entity.NewProduct{Name: "Shirt", Price: 19.99, Brand: "Acme"})
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	price := 24.5
	updated, err := svc.UpdateProduct(ctx, p.ID, entity.ProductUpdate{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, 24.5, updated.Price)
	assert.Equal(t, "Acme", updated.Brand)
	assert.Equal(t, "Shirt", updated.Name)
	assert.Equal(t, *clock, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	// an empty update only touches updated_at
	*clock = clock.Add(time.Minute)
	touched, err := svc.UpdateProduct(ctx, p.ID, entity.ProductUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 24.5, touched.Price)
	assert.Equal(t, *clock, touched.UpdatedAt)
}

func TestProductService_IdentityErrors(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, "abc")
	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "invalid product ID format: abc", ve.Message)

	_, err = svc.UpdateProduct(ctx, entity.NewID(), entity.ProductUpdate{Name: strPtr("New")})
	var nf *entity.NotFoundError
	assert.ErrorAs(t, err, &nf)

	err = svc.DeleteProduct(ctx, entity.NewID())
	assert.ErrorAs(t, err, &nf)
}

func TestProductService_DeleteThenGet(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, entity.NewProduct{Name: "Shirt", Price: 19.99})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	_, err = svc.GetProduct(ctx, p.ID)
	var nf *entity.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProductService_ListPagesAndFilters(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	for _, in := range []entity.NewProduct{
		{Name: "Red Shirt", Price: 10, Category: "tops"},
		{Name: "Blue Shirt", Price: 20, Category: "tops"},
		{Name: "Jeans", Price: 40, Category: "bottoms"},
	} {
		_, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.ListProducts(ctx, entity.ProductFilter{Name: "shirt"}, entity.PageRequest{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasMore())

	maxPrice := 15.0
	page, err = svc.ListProducts(ctx, entity.ProductFilter{MaxPrice: &maxPrice}, entity.PageRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Red Shirt", page.Items[0].Name)

	page, err = svc.ListProducts(ctx, entity.ProductFilter{Category: "shoes"}, entity.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore())

	_, err = svc.ListProducts(ctx, entity.ProductFilter{}, entity.PageRequest{Limit: 101})
	var ve *entity.ValidationError
	assert.ErrorAs(t, err, &ve)
}
