package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
)

type productDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description,omitempty"`
	Price         float64            `bson:"price"`
	Size          string             `bson:"size,omitempty"`
	Category      string             `bson:"category,omitempty"`
	Brand         string             `bson:"brand,omitempty"`
	Attributes    map[string]string  `bson:"attributes,omitempty"`
	StockQuantity *int               `bson:"stock_quantity,omitempty"`
	Images        []string           `bson:"images,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type orderDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	UserID          string             `bson:"user_id"`
	Items           []lineItemDoc      `bson:"items"`
	TotalAmount     float64            `bson:"total_amount"`
	Status          string             `bson:"status"`
	ShippingAddress *addressDoc        `bson:"shipping_address,omitempty"`
	PaymentMethod   string             `bson:"payment_method,omitempty"`
	StatusHistory   []statusChangeDoc  `bson:"status_history,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

type lineItemDoc struct {
	ProductID    primitive.ObjectID `bson:"product_id"`
	ProductName  string             `bson:"product_name"`
	Quantity     int                `bson:"quantity"`
	PricePerItem float64            `bson:"price_per_item"`
	TotalPrice   float64            `bson:"total_price"`
}

type addressDoc struct {
	Street     string `bson:"street"`
	City       string `bson:"city"`
	State      string `bson:"state"`
	PostalCode string `bson:"postal_code"`
	Country    string `bson:"country"`
	Phone      string `bson:"phone,omitempty"`
}

type statusChangeDoc struct {
	Status    string    `bson:"status"`
	Reason    string    `bson:"reason,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

func toProductDoc(p *entity.Product) (productDoc, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return productDoc{}, entity.InvalidIDError("product", p.ID)
	}
	return productDoc{
		ID:            oid,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Size:          p.Size,
		Category:      p.Category,
		Brand:         p.Brand,
		Attributes:    p.Attributes,
		StockQuantity: p.StockQuantity,
		Images:        p.Images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func (d productDoc) toEntity() *entity.Product {
	return &entity.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		Size:          d.Size,
		Category:      d.Category,
		Brand:         d.Brand,
		Attributes:    d.Attributes,
		StockQuantity: d.StockQuantity,
		Images:        d.Images,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func toOrderDoc(o *entity.Order) (orderDoc, error) {
	oid, err := primitive.ObjectIDFromHex(o.ID)
	if err != nil {
		return orderDoc{}, entity.InvalidIDError("order", o.ID)
	}

	items := make([]lineItemDoc, len(o.Items))
	for i, it := range o.Items {
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return orderDoc{}, entity.InvalidIDError("product", it.ProductID)
		}
		items[i] = lineItemDoc{
			ProductID:    pid,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PricePerItem: it.PricePerItem,
			TotalPrice:   it.TotalPrice,
		}
	}

	var addr *addressDoc
	if a := o.ShippingAddress; a != nil {
		addr = &addressDoc{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}

	history := make([]statusChangeDoc, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		history[i] = toStatusChangeDoc(h)
	}

	return orderDoc{
		ID:              oid,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: addr,
		PaymentMethod:   string(o.PaymentMethod),
		StatusHistory:   history,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

func toStatusChangeDoc(c entity.StatusChange) statusChangeDoc {
	return statusChangeDoc{Status: string(c.Status), Reason: c.Reason, Timestamp: c.Timestamp}
}

func (d orderDoc) toEntity() *entity.Order {
	o := &entity.Order{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Items:         make([]entity.OrderLineItem, len(d.Items)),
		TotalAmount:   d.TotalAmount,
		Status:        entity.OrderStatus(d.Status),
		PaymentMethod: entity.PaymentMethod(d.PaymentMethod),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	for i, it := range d.Items {
		o.Items[i] = entity.OrderLineItem{
			ProductID:    it.ProductID.Hex(),
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PricePerItem: it.PricePerItem,
			TotalPrice:   it.TotalPrice,
		}
	}
	if a := d.ShippingAddress; a != nil {
		o.ShippingAddress = &entity.ShippingAddress{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		}
	}
	for _, h := range d.StatusHistory {
		o.StatusHistory = append(o.StatusHistory, entity.StatusChange{
			Status:    entity.OrderStatus(h.Status),
			Reason:    h.Reason,
			Timestamp: h.Timestamp.UTC(),
		})
	}
	return o
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, entity.InvalidIDError("product", id)
		}
		out = append(out, oid)
	}
	return out, nil
}
