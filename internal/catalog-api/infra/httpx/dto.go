package httpx

import (
	"sort"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

type AttributeDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CreateProductRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Size          string         `json:"size"`
	Category      string         `json:"category"`
	Brand         string         `json:"brand"`
	Attributes    []AttributeDTO `json:"attributes"`
	StockQuantity *int           `json:"stock_quantity"`
	Images        []string       `json:"images"`
}

// UpdateProductRequest is a partial update: absent fields stay untouched.
type UpdateProductRequest struct {
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	Price         *float64       `json:"price"`
	Size          *string        `json:"size"`
	Category      *string        `json:"category"`
	Brand         *string        `json:"brand"`
	Attributes    []AttributeDTO `json:"attributes"`
	StockQuantity *int           `json:"stock_quantity"`
	Images        []string       `json:"images"`
}

type ProductResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Price         float64        `json:"price"`
	Size          string         `json:"size,omitempty"`
	Category      string         `json:"category,omitempty"`
	Brand         string         `json:"brand,omitempty"`
	Attributes    []AttributeDTO `json:"attributes"`
	StockQuantity *int           `json:"stock_quantity"`
	Images        []string       `json:"images"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	HasMore  bool              `json:"has_more"`
}

type OrderItemDTO struct {
	ProductID    string   `json:"product_id"`
	Quantity     int      `json:"quantity"`
	PricePerItem *float64 `json:"price_per_item,omitempty"`
}

type ShippingAddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type CreateOrderRequest struct {
	UserID          string              `json:"user_id"`
	Items           []OrderItemDTO      `json:"items"`
	ShippingAddress *ShippingAddressDTO `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type OrderLineResponse struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"quantity"`
	PricePerItem float64 `json:"price_per_item"`
	TotalPrice   float64 `json:"total_price"`
}

type StatusChangeResponse struct {
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderResponse struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	Items           []OrderLineResponse    `json:"items"`
	TotalAmount     float64                `json:"total_amount"`
	Status          string                 `json:"status"`
	ShippingAddress *ShippingAddressDTO    `json:"shipping_address,omitempty"`
	PaymentMethod   string                 `json:"payment_method,omitempty"`
	StatusHistory   []StatusChangeResponse `json:"status_history"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type OrderListResponse struct {
	Orders  []OrderResponse `json:"orders"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	UserID  string          `json:"user_id"`
	HasMore bool            `json:"has_more"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type RootResponse struct {
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Docs      string    `json:"docs"`
	Health    string    `json:"health"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`

	ProductID string `json:"product_id,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

// attributesToMap rejects repeated attribute names.
func attributesToMap(attrs []AttributeDTO) (map[string]string, error) {
	if attrs == nil {
		return nil, nil
	}
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if _, dup := out[a.Name]; dup {
			return nil, entity.NewValidationError("attributes", "attribute names must be unique, duplicate: "+a.Name)
		}
		out[a.Name] = a.Value
	}
	return out, nil
}

func (req CreateProductRequest) toEntity() (entity.NewProduct, error) {
	attrs, err := attributesToMap(req.Attributes)
	if err != nil {
		return entity.NewProduct{}, err
	}
	return entity.NewProduct{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Size:          req.Size,
		Category:      req.Category,
		Brand:         req.Brand,
		Attributes:    attrs,
		StockQuantity: req.StockQuantity,
		Images:        req.Images,
	}, nil
}

func (req UpdateProductRequest) toEntity() (entity.ProductUpdate, error) {
	attrs, err := attributesToMap(req.Attributes)
	if err != nil {
		return entity.ProductUpdate{}, err
	}
	return entity.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Size:          req.Size,
		Category:      req.Category,
		Brand:         req.Brand,
		Attributes:    attrs,
		StockQuantity: req.StockQuantity,
		Images:        req.Images,
	}, nil
}

func (req CreateOrderRequest) toEntity() entity.CreateOrderRequest {
	items := make([]entity.OrderItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = entity.OrderItemRequest{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PricePerItem: it.PricePerItem,
		}
	}
	var addr *entity.ShippingAddress
	if a := req.ShippingAddress; a != nil {
		addr = &entity.ShippingAddress{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}
	return entity.CreateOrderRequest{
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   req.PaymentMethod,
	}
}

// mapProductToResponse lists attributes sorted by name so responses are
// stable across reads.
func mapProductToResponse(p *entity.Product) ProductResponse {
	attrs := make([]AttributeDTO, 0, len(p.Attributes))
	for k, v := range p.Attributes {
		attrs = append(attrs, AttributeDTO{Name: k, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })

	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Size:          p.Size,
		Category:      p.Category,
		Brand:         p.Brand,
		Attributes:    attrs,
		StockQuantity: p.StockQuantity,
		Images:        images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func mapOrderToResponse(o *entity.Order) OrderResponse {
	items := make([]OrderLineResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderLineResponse{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PricePerItem: it.PricePerItem,
			TotalPrice:   it.TotalPrice,
		}
	}
	history := make([]StatusChangeResponse, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		history[i] = StatusChangeResponse{Status: string(h.Status), Reason: h.Reason, Timestamp: h.Timestamp}
	}

	var addr *ShippingAddressDTO
	if a := o.ShippingAddress; a != nil {
		addr = &ShippingAddressDTO{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: addr,
		PaymentMethod:   string(o.PaymentMethod),
		StatusHistory:   history,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
