package ports

import (
	"context"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

type ProductService interface {
	CreateProduct(ctx context.Context, in entity.NewProduct) (*entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListProducts(ctx context.Context, filter entity.ProductFilter, page entity.PageRequest) (entity.Page[*entity.Product], error)
	UpdateProduct(ctx context.Context, id string, upd entity.ProductUpdate) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, req entity.CreateOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, id string) (*entity.Order, error)
	ListUserOrders(ctx context.Context, filter entity.OrderFilter, page entity.PageRequest) (entity.Page[*entity.Order], error)
	UpdateOrderStatus(ctx context.Context, req entity.UpdateStatusRequest) (*entity.Order, error)
}
