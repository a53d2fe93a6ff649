package entity

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// orderStatusTag lists every status; any status may follow any other.
const orderStatusTag = "oneof=pending confirmed processing shipped delivered cancelled refunded"

// ParseOrderStatus normalizes s (trimmed, lower-cased) and checks it against
// the known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if err := validateVar("status", norm, "required,"+orderStatusTag); err != nil {
		return "", err
	}
	return OrderStatus(norm), nil
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPayPal     PaymentMethod = "paypal"
	PaymentUPI        PaymentMethod = "upi"
	PaymentCOD        PaymentMethod = "cod"
)

// ParsePaymentMethod accepts an empty value (no method chosen yet).
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if err := validateVar("payment_method", norm, "omitempty,oneof=credit_card debit_card paypal upi cod"); err != nil {
		return "", err
	}
	return PaymentMethod(norm), nil
}

type ShippingAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

type Order struct {
	ID              string
	UserID          string
	Items           []OrderLineItem
	TotalAmount     float64
	Status          OrderStatus
	ShippingAddress *ShippingAddress
	PaymentMethod   PaymentMethod
	StatusHistory   []StatusChange
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLineItem is a snapshot taken when the order is created and never
// changed afterwards.
type OrderLineItem struct {
	ProductID    string
	ProductName  string
	Quantity     int
	PricePerItem float64
	TotalPrice   float64
}

type StatusChange struct {
	Status    OrderStatus
	Reason    string
	Timestamp time.Time
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	// PricePerItem is a client-supplied override, honored only when the
	// service is configured to accept overrides.
	PricePerItem *float64 `json:"price_per_item" validate:"omitempty,gt=0"`
}

type CreateOrderRequest struct {
	UserID          string             `json:"user_id" validate:"notblank"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *ShippingAddress   `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
}

// Validate checks the request shape, then the item count and quantities
// against the configured limits. Product identities are checked separately
// so that a malformed id is reported for the offending line.
func (r CreateOrderRequest) Validate(maxItems, maxQuantity int) error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if err := validateVar("items", r.Items, fmt.Sprintf("max=%d", maxItems)); err != nil {
		return err
	}
	for i, it := range r.Items {
		if err := validateVar(fmt.Sprintf("items[%d].quantity", i), it.Quantity, fmt.Sprintf("max=%d", maxQuantity)); err != nil {
			return err
		}
	}
	return nil
}

type UpdateStatusRequest struct {
	OrderID string
	Status  string
	Reason  string
}

type OrderFilter struct {
	UserID string
	Status OrderStatus
}
