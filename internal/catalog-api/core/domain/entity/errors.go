package entity

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is returned when the document store connection is not
// established.
var ErrStoreUnavailable = errors.New("document store unavailable")

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s. Available: %d, Requested: %d", e.ProductID, e.Available, e.Requested)
}

// InvalidIDError reports a malformed identity for the named resource.
func InvalidIDError(resource, id string) *ValidationError {
	return NewValidationError(resource+"_id", fmt.Sprintf("invalid %s ID format: %s", resource, id))
}
