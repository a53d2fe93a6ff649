package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
)

var tracer = otel.Tracer("github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/app")

var _ ports.OrderService = (*OrderService)(nil)

type OrderService struct {
	products ports.ProductRepository
	orders   ports.OrderRepository
	sagaLog  sagalog.Repository // nil-safe: saga transitions are not persisted if nil
	settings Settings
	now      func() time.Time
}

// NewOrderService wires the order transaction. sagaLog may be nil.
func NewOrderService(products ports.ProductRepository, orders ports.OrderRepository, sagaLog sagalog.Repository, settings Settings) *OrderService {
	return &OrderService{
		products: products,
		orders:   orders,
		sagaLog:  sagaLog,
		settings: settings,
		now:      utcNow,
	}
}

// CreateOrder validates the request against current product state, snapshots
// names and prices, reserves stock and persists the order as pending.
//
// Nothing is written until every line has been validated, resolved and
// checked against available stock. Stock is then reserved with conditional
// decrements before the order is inserted; if any reservation or the insert
// fails, reservations already taken are restored.
func (s *OrderService) CreateOrder(ctx context.Context, req entity.CreateOrderRequest) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "orders.create")
	defer span.End()

	if err := req.Validate(s.settings.MaxOrderItems, s.settings.MaxItemQuantity); err != nil {
		return nil, err
	}
	payment, err := entity.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	requested, ids := requestedQuantities(req.Items)
	for _, id := range ids {
		p := products[id]
		if p.TracksStock() && *p.StockQuantity < requested[id] {
			return nil, &entity.InsufficientStockError{
				ProductID: id,
				Available: *p.StockQuantity,
				Requested: requested[id],
			}
		}
	}

	lines, total := priceLines(req.Items, products, s.settings.AllowPriceOverride)

	now := s.now()
	created := &entity.Order{
		ID:              entity.NewID(),
		UserID:          req.UserID,
		Items:           lines,
		TotalAmount:     total,
		Status:          entity.StatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   payment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	span.SetAttributes(
		attribute.String("order.id", created.ID),
		attribute.Int("order.items", len(lines)),
	)

	steps := make([]coordinator.Step, 0, len(ids)+1)
	for _, id := range ids {
		if products[id].TracksStock() {
			steps = append(steps, coordinator.NewReserveStockStep(s.products, id, requested[id], s.now))
		}
	}
	steps = append(steps, coordinator.NewPersistOrderStep(s.orders, created))

	saga := coordinator.NewOrchestrator(created.ID, steps, s.sagaLog, coordinator.WithPayload(sagaPayload(req)))
	if err := saga.Start(ctx); err != nil {
		slog.WarnContext(ctx, "order transaction aborted", "order_id", created.ID, "user_id", req.UserID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "order created", "order_id", created.ID, "user_id", created.UserID, "total_amount", created.TotalAmount)
	return created, nil
}

// resolveProducts checks every product identity and loads the products in a
// single query. The first unknown identity, in request order, is reported.
func (s *OrderService) resolveProducts(ctx context.Context, items []entity.OrderItemRequest) (map[string]*entity.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !entity.ValidID(it.ProductID) {
			return nil, entity.InvalidIDError("product", it.ProductID)
		}
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, entity.NewNotFoundError("product", id)
		}
	}
	return products, nil
}

// requestedQuantities sums quantities per product so that a product listed on
// several lines is checked and reserved once. order keeps first appearance.
func requestedQuantities(items []entity.OrderItemRequest) (map[string]int, []string) {
	requested := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		if _, ok := requested[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}
	return requested, order
}

// priceLines snapshots each line and sums the total in decimal arithmetic, so
// the total does not depend on the order of the lines. A client price
// override wins over the catalog price only when overrides are allowed.
func priceLines(items []entity.OrderItemRequest, products map[string]*entity.Product, allowOverride bool) ([]entity.OrderLineItem, float64) {
	lines := make([]entity.OrderLineItem, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		p := products[it.ProductID]
		price := p.Price
		if allowOverride && it.PricePerItem != nil {
			price = *it.PricePerItem
		}

		lineTotal := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(lineTotal)

		lines = append(lines, entity.OrderLineItem{
			ProductID:    it.ProductID,
			ProductName:  p.Name,
			Quantity:     it.Quantity,
			PricePerItem: price,
			TotalPrice:   lineTotal.InexactFloat64(),
		})
	}
	return lines, total.InexactFloat64()
}

type sagaItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func sagaPayload(req entity.CreateOrderRequest) string {
	items := make([]sagaItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = sagaItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	b, err := json.Marshal(struct {
		UserID string     `json:"user_id"`
		Items  []sagaItem `json:"items"`
	}{req.UserID, items})
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	if !entity.ValidID(id) {
		return nil, entity.InvalidIDError("order", id)
	}
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListUserOrders(ctx context.Context, filter entity.OrderFilter, page entity.PageRequest) (entity.Page[*entity.Order], error) {
	if filter.UserID == "" {
		return entity.Page[*entity.Order]{}, entity.NewValidationError("user_id", "is required")
	}
	if err := page.Validate(s.settings.MaxPageSize); err != nil {
		return entity.Page[*entity.Order]{}, err
	}
	if filter.Status != "" {
		st, err := entity.ParseOrderStatus(string(filter.Status))
		if err != nil {
			return entity.Page[*entity.Order]{}, err
		}
		filter.Status = st
	}

	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return entity.Page[*entity.Order]{}, fmt.Errorf("count orders: %w", err)
	}
	items, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return entity.Page[*entity.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	return entity.Page[*entity.Order]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// UpdateOrderStatus moves an order to any status in the enum; there is no
// transition graph.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, req entity.UpdateStatusRequest) (*entity.Order, error) {
	if !entity.ValidID(req.OrderID) {
		return nil, entity.InvalidIDError("order", req.OrderID)
	}
	status, err := entity.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.UpdateStatus(ctx, req.OrderID, entity.StatusChange{
		Status:    status,
		Reason:    req.Reason,
		Timestamp: s.now(),
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status updated", "order_id", req.OrderID, "status", status)
	return updated, nil
}
