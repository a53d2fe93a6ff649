package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

// ProductRepository is the products collection of the document store.
// Implementations return *entity.NotFoundError for unknown identities.
type ProductRepository interface {
	Insert(ctx context.Context, p *entity.Product) error
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByIDs returns the products that exist, keyed by identity. Missing
	// identities are simply absent from the map.
	FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter, page entity.PageRequest) ([]*entity.Product, error)
	Count(ctx context.Context, filter entity.ProductFilter) (int64, error)
	Update(ctx context.Context, id string, upd entity.ProductUpdate, now time.Time) (*entity.Product, error)
	Delete(ctx context.Context, id string) error

	// DecrementStock subtracts qty only if at least qty units are available.
	// It reports false, with the currently available count, when the
	// condition does not hold.
	DecrementStock(ctx context.Context, id string, qty int, now time.Time) (ok bool, available int, err error)
	RestoreStock(ctx context.Context, id string, qty int, now time.Time) error
}

// OrderRepository is the orders collection of the document store.
type OrderRepository interface {
	Insert(ctx context.Context, o *entity.Order) error
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, filter entity.OrderFilter, page entity.PageRequest) ([]*entity.Order, error)
	Count(ctx context.Context, filter entity.OrderFilter) (int64, error)
	UpdateStatus(ctx context.Context, id string, change entity.StatusChange) (*entity.Order, error)
	Delete(ctx context.Context, id string) error
}

// StoreHealth exposes the availability of the document store as explicit
// state instead of a nil check at every call site.
type StoreHealth interface {
	Available() bool
	// Ping re-checks the connection and updates the availability state.
	Ping(ctx context.Context) error
}
