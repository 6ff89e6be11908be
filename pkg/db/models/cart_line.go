package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/pkg/types"
)

// CartLine is one row in a cart: a quantity of a menu item with a specific
// customization selection. SelectionKey caches the canonical comparison key
// so merge checks never re-parse the jsonb payload.
type CartLine struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID              uuid.UUID          `gorm:"column:cart_id;type:uuid;not null"`
	ItemID              uuid.UUID          `gorm:"column:item_id;type:uuid;not null"`
	Quantity            int                `gorm:"column:quantity;not null"`
	Selections          types.SelectionSet `gorm:"column:selections;type:jsonb;serializer:json"`
	SelectionKey        string             `gorm:"column:selection_key;not null;default:''"`
	SpecialInstructions *string            `gorm:"column:special_instructions"`
	UnitPrice           decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice          decimal.Decimal    `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
