package enums

import "fmt"

// ItemAvailability tracks whether a catalog item can currently be ordered.
type ItemAvailability string

const (
	ItemAvailabilityActive   ItemAvailability = "active"
	ItemAvailabilityInactive ItemAvailability = "inactive"
	ItemAvailabilitySoldOut  ItemAvailability = "sold_out"
	ItemAvailabilityLowStock ItemAvailability = "low_stock"
)

var validItemAvailabilities = []ItemAvailability{
	ItemAvailabilityActive,
	ItemAvailabilityInactive,
	ItemAvailabilitySoldOut,
	ItemAvailabilityLowStock,
}

// String implements fmt.Stringer.
func (a ItemAvailability) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ItemAvailability.
func (a ItemAvailability) IsValid() bool {
	for _, candidate := range validItemAvailabilities {
		if candidate == a {
			return true
		}
	}
	return false
}

// Orderable reports whether items in this state may enter a cart or order.
// Low-stock items remain orderable; inactive and sold-out items do not.
func (a ItemAvailability) Orderable() bool {
	return a == ItemAvailabilityActive || a == ItemAvailabilityLowStock
}

// ParseItemAvailability converts raw input into an ItemAvailability.
func ParseItemAvailability(value string) (ItemAvailability, error) {
	for _, candidate := range validItemAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item availability %q", value)
}
