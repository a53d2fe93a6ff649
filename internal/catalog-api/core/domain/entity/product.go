package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID            string
	Name          string
	Description   string
	Price         float64
	Size          string
	Category      string
	Brand         string
	Attributes    map[string]string
	StockQuantity *int
	Images        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TracksStock reports whether the product carries an inventory counter.
// Products without one are never checked or decremented by orders.
func (p *Product) TracksStock() bool {
	return p.StockQuantity != nil
}

// NewProduct is the input for creating a product.
type NewProduct struct {
	Name          string            `json:"name" validate:"required,max=200"`
	Description   string            `json:"description" validate:"omitempty,min=10,max=2000"`
	Price         float64           `json:"price" validate:"gt=0"`
	Size          string            `json:"size" validate:"max=50"`
	Category      string            `json:"category" validate:"max=100"`
	Brand         string            `json:"brand" validate:"max=100"`
	Attributes    map[string]string `json:"attributes" validate:"omitempty,dive,keys,required,endkeys,required"`
	StockQuantity *int              `json:"stock_quantity" validate:"omitempty,gte=0"`
	Images        []string          `json:"images" validate:"max=10"`
}

func (p NewProduct) Validate() error {
	return validateStruct(p)
}

// ProductUpdate carries a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name          *string           `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string           `json:"description" validate:"omitempty,min=10,max=2000"`
	Price         *float64          `json:"price" validate:"omitempty,gt=0"`
	Size          *string           `json:"size" validate:"omitempty,max=50"`
	Category      *string           `json:"category" validate:"omitempty,max=100"`
	Brand         *string           `json:"brand" validate:"omitempty,max=100"`
	Attributes    map[string]string `json:"attributes" validate:"omitempty,dive,keys,required,endkeys,required"`
	StockQuantity *int              `json:"stock_quantity" validate:"omitempty,gte=0"`
	Images        []string          `json:"images" validate:"max=10"`
}

func (u ProductUpdate) Validate() error {
	return validateStruct(u)
}

// IsEmpty reports whether the update changes nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Size == nil &&
		u.Category == nil && u.Brand == nil && u.Attributes == nil && u.StockQuantity == nil && u.Images == nil
}

// ProductFilter selects products for listing. Zero values mean "no filter".
type ProductFilter struct {
	Name     string
	Size     string
	Category string
	Brand    string
	MinPrice *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `json:"max_price" validate:"omitempty,gt=0"`
	InStock  *bool
}

func (f ProductFilter) Validate() error {
	if err := validateStruct(f); err != nil {
		return err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return NewValidationError("min_price", "must not exceed max_price")
	}
	return nil
}

// ValidID reports whether s is a well-formed store identity.
func ValidID(s string) bool {
	return primitive.IsValidObjectID(s)
}

// NewID allocates a fresh store identity.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
