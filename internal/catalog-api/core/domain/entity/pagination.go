package entity

import "fmt"

type PageRequest struct {
	Limit  int `json:"limit" validate:"min=1"`
	Offset int `json:"offset" validate:"gte=0"`
}

// Validate checks limit in [1, maxLimit] and offset >= 0.
func (p PageRequest) Validate(maxLimit int) error {
	if err := validateStruct(p); err != nil {
		return err
	}
	return validateVar("limit", p.Limit, fmt.Sprintf("max=%d", maxLimit))
}

// Page is one window of a filtered listing. Total counts every match, not
// just the items in the window.
type Page[T any] struct {
	Items  []T
	Total  int64
	Limit  int
	Offset int
}

func (p Page[T]) HasMore() bool {
	return int64(p.Offset+p.Limit) < p.Total
}
