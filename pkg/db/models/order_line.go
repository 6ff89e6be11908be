package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/pkg/types"
)

// OrderLine snapshots one cart line at order time. Name is copied from the
// menu item so the order remains readable after catalog edits.
type OrderLine struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	ItemID              uuid.UUID          `gorm:"column:item_id;type:uuid;not null"`
	Name                string             `gorm:"column:name;not null"`
	Quantity            int                `gorm:"column:quantity;not null"`
	Selections          types.SelectionSet `gorm:"column:selections;type:jsonb;serializer:json"`
	SpecialInstructions *string            `gorm:"column:special_instructions"`
	UnitPrice           decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice          decimal.Decimal    `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
}
