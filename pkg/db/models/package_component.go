package models

import (
	"time"

	"github.com/google/uuid"
)

// PackageComponent records which menu items a package bundles. Components
// are informational; the package carries its own base price and groups.
type PackageComponent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID uuid.UUID `gorm:"column:package_id;type:uuid;not null"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
