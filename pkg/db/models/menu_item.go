package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/pkg/enums"
)

// MenuItem is a priceable catalog entry: a single dish or a package of
// dishes sold together. Packages carry their own customization groups,
// copied from a template at creation, so both kinds price identically.
type MenuItem struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string                 `gorm:"column:name;not null"`
	Description  *string                `gorm:"column:description"`
	Kind         enums.ItemKind         `gorm:"column:kind;type:item_kind;not null;default:'item'"`
	BasePrice    decimal.Decimal        `gorm:"column:base_price;type:numeric(12,2);not null"`
	Availability enums.ItemAvailability `gorm:"column:availability;type:item_availability;not null;default:'active'"`
	CategoryID   *uuid.UUID             `gorm:"column:category_id;type:uuid"`
	ImageURL     *string                `gorm:"column:image_url"`
	Tags         pq.StringArray         `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	Position     int                    `gorm:"column:position;not null;default:0"`
	Groups       []CustomizationGroup   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Components   []PackageComponent     `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemBasePrice implements pricing.Priceable.
func (m *MenuItem) ItemBasePrice() decimal.Decimal {
	return m.BasePrice
}

// CustomizationGroups implements pricing.Priceable.
func (m *MenuItem) CustomizationGroups() []CustomizationGroup {
	return m.Groups
}

// ItemAvailability implements pricing.Priceable.
func (m *MenuItem) ItemAvailability() enums.ItemAvailability {
	return m.Availability
}
