package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/pkg/db/models"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/types"
)

// Epsilon is the tolerance used when comparing client-submitted and
// server-recomputed monetary values.
var Epsilon = decimal.NewFromFloat(0.01)

// Quote holds the authoritative prices derived from catalog data.
type Quote struct {
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// Price computes the unit and total price for a selection against the
// item's current catalog state. The selection is canonicalized first, so
// a payload repeating a group or option prices identically to its flat
// form and two selections with equal canonical keys always price equally.
//
// Unknown group or option ids in the selection are ignored rather than
// rejected; Validate gates trust before any price is acted on. The
// computation is pure, so it is safe under concurrent requests.
func Price(item Priceable, selections types.SelectionSet, quantity int) (Quote, error) {
	if quantity < 1 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{
				"reason":   "invalid_quantity",
				"quantity": quantity,
			})
	}

	groups := groupIndex(item)

	unit := item.ItemBasePrice()
	for _, sel := range selections.Canonical() {
		group, ok := groups[sel.GroupID]
		if !ok {
			continue
		}
		for _, optionID := range sel.OptionIDs {
			if option := group.OptionByID(optionID); option != nil {
				unit = unit.Add(option.PriceDelta)
			}
		}
	}

	unit = unit.Round(2)
	total := unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	return Quote{UnitPrice: unit, TotalPrice: total}, nil
}

// WithinEpsilon reports whether two monetary values agree within the
// rounding tolerance.
func WithinEpsilon(submitted, expected decimal.Decimal) bool {
	return submitted.Sub(expected).Abs().LessThanOrEqual(Epsilon)
}

func groupIndex(item Priceable) map[uuid.UUID]models.CustomizationGroup {
	groups := item.CustomizationGroups()
	index := make(map[uuid.UUID]models.CustomizationGroup, len(groups))
	for _, group := range groups {
		index[group.ID] = group
	}
	return index
}
