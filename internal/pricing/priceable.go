package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
)

// Priceable is the capability surface shared by single menu items and
// packages. Pricing and validation operate on it uniformly instead of
// branching on item kind.
type Priceable interface {
	ItemBasePrice() decimal.Decimal
	CustomizationGroups() []models.CustomizationGroup
	ItemAvailability() enums.ItemAvailability
}
