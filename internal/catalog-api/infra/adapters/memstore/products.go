// Package memstore keeps products and orders in process memory. It backs
// STORE_DRIVER=memory for local runs and the endpoint tests, and mirrors the
// single-document atomicity of the real store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

type ProductRepository struct {
	mu       sync.Mutex
	products map[string]*entity.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*entity.Product)}
}

func (r *ProductRepository) Insert(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = entity.NewID()
	}
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, entity.NewNotFoundError("product", id)
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) FindByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *ProductRepository) List(_ context.Context, filter entity.ProductFilter, page entity.PageRequest) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := window(r.match(filter), page)
	out := make([]*entity.Product, len(items))
	for i, p := range items {
		out[i] = cloneProduct(p)
	}
	return out, nil
}

func (r *ProductRepository) Count(_ context.Context, filter entity.ProductFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.match(filter))), nil
}

func (r *ProductRepository) Update(_ context.Context, id string, upd entity.ProductUpdate, now time.Time) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, entity.NewNotFoundError("product", id)
	}
	applyUpdate(p, upd)
	p.UpdatedAt = now
	return cloneProduct(p), nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return entity.NewNotFoundError("product", id)
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepository) DecrementStock(_ context.Context, id string, qty int, now time.Time) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return false, 0, entity.NewNotFoundError("product", id)
	}
	if p.StockQuantity == nil {
		return true, 0, nil
	}
	if *p.StockQuantity < qty {
		return false, *p.StockQuantity, nil
	}
	left := *p.StockQuantity - qty
	p.StockQuantity = &left
	p.UpdatedAt = now
	return true, left, nil
}

func (r *ProductRepository) RestoreStock(_ context.Context, id string, qty int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return entity.NewNotFoundError("product", id)
	}
	if p.StockQuantity == nil {
		return nil
	}
	restored := *p.StockQuantity + qty
	p.StockQuantity = &restored
	p.UpdatedAt = now
	return nil
}

// match returns the products selected by filter in ascending identity order,
// the same order the document store uses. ObjectID hex strings sort by
// creation time first.
func (r *ProductRepository) match(f entity.ProductFilter) []*entity.Product {
	var out []*entity.Product
	for _, p := range r.products {
		if matchesProduct(p, f) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchesProduct(p *entity.Product, f entity.ProductFilter) bool {
	if f.Name != "" && !containsFold(p.Name, f.Name) {
		return false
	}
	if f.Size != "" && p.Size != f.Size {
		return false
	}
	if f.Category != "" && !containsFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != "" && !containsFold(p.Brand, f.Brand) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.InStock != nil {
		if p.StockQuantity == nil {
			return false
		}
		if *f.InStock != (*p.StockQuantity > 0) {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func applyUpdate(p *entity.Product, u entity.ProductUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Size != nil {
		p.Size = *u.Size
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Brand != nil {
		p.Brand = *u.Brand
	}
	if u.Attributes != nil {
		p.Attributes = copyMap(u.Attributes)
	}
	if u.StockQuantity != nil {
		v := *u.StockQuantity
		p.StockQuantity = &v
	}
	if u.Images != nil {
		p.Images = append([]string(nil), u.Images...)
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	c.Attributes = copyMap(p.Attributes)
	c.Images = append([]string(nil), p.Images...)
	if p.StockQuantity != nil {
		v := *p.StockQuantity
		c.StockQuantity = &v
	}
	return &c
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func window[T any](items []T, page entity.PageRequest) []T {
	if page.Offset >= len(items) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
