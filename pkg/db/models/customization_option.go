package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomizationOption is one selectable choice within a group. PriceDelta
// is signed; negative deltas model discounts.
type CustomizationOption struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID     uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	PriceDelta  decimal.Decimal `gorm:"column:price_delta;type:numeric(12,2);not null;default:0"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
