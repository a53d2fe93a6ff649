package app

import "time"

// Settings are the business limits shared by the services.
type Settings struct {
	MaxOrderItems      int
	MaxItemQuantity    int
	MaxPageSize        int
	AllowPriceOverride bool
}

func DefaultSettings() Settings {
	return Settings{
		MaxOrderItems:   50,
		MaxItemQuantity: 100,
		MaxPageSize:     100,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
