package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/forkline/forkline-backend/pkg/enums"
)

// CustomizationGroup is a named set of related options attached to a menu
// item, e.g. "Spice Level" or "Extra Toppings".
type CustomizationGroup struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID        uuid.UUID             `gorm:"column:item_id;type:uuid;not null"`
	Name          string                `gorm:"column:name;not null"`
	Kind          enums.SelectionKind   `gorm:"column:kind;type:selection_kind;not null"`
	Required      bool                  `gorm:"column:required;not null;default:false"`
	MaxSelections *int                  `gorm:"column:max_selections"`
	Position      int                   `gorm:"column:position;not null;default:0"`
	Options       []CustomizationOption `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OptionByID resolves an option within the group, or nil when absent.
func (g CustomizationGroup) OptionByID(id uuid.UUID) *CustomizationOption {
	for i := range g.Options {
		if g.Options[i].ID == id {
			return &g.Options[i]
		}
	}
	return nil
}
