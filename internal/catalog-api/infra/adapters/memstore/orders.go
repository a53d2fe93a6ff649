package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*entity.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*entity.Order)}
}

func (r *OrderRepository) Insert(_ context.Context, o *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID == "" {
		o.ID = entity.NewID()
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, entity.NewNotFoundError("order", id)
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) List(_ context.Context, filter entity.OrderFilter, page entity.PageRequest) ([]*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := window(r.match(filter), page)
	out := make([]*entity.Order, len(items))
	for i, o := range items {
		out[i] = cloneOrder(o)
	}
	return out, nil
}

func (r *OrderRepository) Count(_ context.Context, filter entity.OrderFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(filter))), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, change entity.StatusChange) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, entity.NewNotFoundError("order", id)
	}
	o.Status = change.Status
	o.UpdatedAt = change.Timestamp
	o.StatusHistory = append(o.StatusHistory, change)
	return cloneOrder(o), nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return entity.NewNotFoundError("order", id)
	}
	delete(r.orders, id)
	return nil
}

// match returns the user's orders newest first, identity descending on ties.
func (r *OrderRepository) match(f entity.OrderFilter) []*entity.Order {
	var out []*entity.Order
	for _, o := range r.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderLineItem(nil), o.Items...)
	c.StatusHistory = append([]entity.StatusChange(nil), o.StatusHistory...)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		c.ShippingAddress = &addr
	}
	return &c
}
