package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

// --- ReserveStockStep ---

// ReserveStockStep takes quantity units of a product out of inventory with a
// conditional decrement, so two orders can never both consume the last unit.
type ReserveStockStep struct {
	products  ports.ProductRepository
	productID string
	quantity  int
	now       func() time.Time
	reserved  bool
}

// NewReserveStockStep stamps updated_at from now, both when reserving and
// when restoring.
func NewReserveStockStep(products ports.ProductRepository, productID string, quantity int, now func() time.Time) *ReserveStockStep {
	return &ReserveStockStep{
		products:  products,
		productID: productID,
		quantity:  quantity,
		now:       now,
	}
}

func (s *ReserveStockStep) Name() string { return "Reserve_Stock_Step" }

func (s *ReserveStockStep) Execute(ctx context.Context) error {
	ok, available, err := s.products.DecrementStock(ctx, s.productID, s.quantity, s.now())
	if err != nil {
		return fmt.Errorf("reserve stock for product %s: %w", s.productID, err)
	}
	if !ok {
		return &entity.InsufficientStockError{
			ProductID: s.productID,
			Available: available,
			Requested: s.quantity,
		}
	}
	s.reserved = true
	return nil
}

func (s *ReserveStockStep) Compensate(ctx context.Context) error {
	if !s.reserved {
		return nil
	}
	if err := s.products.RestoreStock(ctx, s.productID, s.quantity, s.now()); err != nil {
		return fmt.Errorf("restore stock for product %s: %w", s.productID, err)
	}
	s.reserved = false
	return nil
}

// --- PersistOrderStep ---

type PersistOrderStep struct {
	orders    ports.OrderRepository
	order     *entity.Order
	persisted bool
}

func NewPersistOrderStep(orders ports.OrderRepository, order *entity.Order) *PersistOrderStep {
	return &PersistOrderStep{
		orders: orders,
		order:  order,
	}
}

func (s *PersistOrderStep) Name() string { return "Persist_Order_Step" }

func (s *PersistOrderStep) Execute(ctx context.Context) error {
	if err := s.orders.Insert(ctx, s.order); err != nil {
		return fmt.Errorf("persist order: %w", err)
	}
	s.persisted = true
	return nil
}

// Compensate removes the order. It only runs when a step registered after
// this one fails; in the order-creation saga this is the last step.
func (s *PersistOrderStep) Compensate(ctx context.Context) error {
	if !s.persisted {
		return nil
	}
	if err := s.orders.Delete(ctx, s.order.ID); err != nil {
		return fmt.Errorf("remove order %s: %w", s.order.ID, err)
	}
	s.persisted = false
	return nil
}
