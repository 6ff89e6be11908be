package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes menu catalog reads and admin mutations.
type Service interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	ListItems(ctx context.Context, params pagination.Params, filters ListFilters) (*ItemList, error)
	ListCategories(ctx context.Context) ([]models.MenuCategory, error)

	CreateItem(ctx context.Context, input ItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input ItemInput) (*models.MenuItem, error)
	SetAvailability(ctx context.Context, id uuid.UUID, availability enums.ItemAvailability) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	CreateCategory(ctx context.Context, name string, position int) (*models.MenuCategory, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ItemInput is the admin payload for creating or replacing a menu item.
type ItemInput struct {
	Name        string
	Description *string
	Kind        enums.ItemKind
	BasePrice   decimal.Decimal
	CategoryID  *uuid.UUID
	ImageURL    *string
	Tags        []string
	Position    int
	Groups      []GroupInput
	Components  []ComponentInput
}

// GroupInput describes one customization group within an item payload.
type GroupInput struct {
	Name          string
	Kind          enums.SelectionKind
	Required      bool
	MaxSelections *int
	Position      int
	Options       []OptionInput
}

// OptionInput describes one option within a group payload.
type OptionInput struct {
	Name        string
	PriceDelta  decimal.Decimal
	IsAvailable bool
	Position    int
}

// ComponentInput names one bundled item of a package payload.
type ComponentInput struct {
	ItemID   uuid.UUID
	Quantity int
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return s.repo.GetItem(ctx, id)
}

func (s *service) ListItems(ctx context.Context, params pagination.Params, filters ListFilters) (*ItemList, error) {
	return s.repo.ListItems(ctx, params, filters)
}

func (s *service) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (*models.MenuItem, error) {
	item, err := itemFromInput(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, txErr := s.repo.WithTx(tx).CreateItem(ctx, item)
		if txErr != nil {
			return txErr
		}
		item = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem replaces the item's scalar fields and its full customization
// tree in one transaction. Cart lines referencing removed options become
// stale and are caught by re-validation at checkout.
func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input ItemInput) (*models.MenuItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	item, err := itemFromInput(input)
	if err != nil {
		return nil, err
	}
	item.ID = id

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if _, txErr := scoped.GetItem(ctx, id); txErr != nil {
			return txErr
		}
		if _, txErr := scoped.UpdateItem(ctx, item); txErr != nil {
			return txErr
		}
		if txErr := scoped.ReplaceGroups(ctx, id, item.Groups); txErr != nil {
			return txErr
		}
		return scoped.ReplaceComponents(ctx, id, item.Components)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, id)
}

func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, availability enums.ItemAvailability) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !availability.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid availability").
			WithDetails(map[string]any{"availability": string(availability)})
	}
	return s.repo.SetAvailability(ctx, id, availability)
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return s.repo.DeleteItem(ctx, id)
}

func (s *service) CreateCategory(ctx context.Context, name string, position int) (*models.MenuCategory, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return s.repo.CreateCategory(ctx, &models.MenuCategory{Name: name, Position: position})
}

func itemFromInput(input ItemInput) (*models.MenuItem, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item kind").
			WithDetails(map[string]any{"kind": string(input.Kind)})
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be non-negative")
	}
	if input.Kind == enums.ItemKindItem && len(input.Components) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "single items cannot carry package components")
	}

	groups := make([]models.CustomizationGroup, 0, len(input.Groups))
	for _, g := range input.Groups {
		if g.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name is required")
		}
		if !g.Kind.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid selection kind").
				WithDetails(map[string]any{"group": g.Name, "kind": string(g.Kind)})
		}
		if g.MaxSelections != nil {
			if g.Kind != enums.SelectionKindMulti {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "max selections only applies to multi groups").
					WithDetails(map[string]any{"group": g.Name})
			}
			if *g.MaxSelections < 1 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "max selections must be positive").
					WithDetails(map[string]any{"group": g.Name})
			}
		}
		if g.Kind == enums.SelectionKindText && len(g.Options) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "text groups cannot carry options").
				WithDetails(map[string]any{"group": g.Name})
		}

		options := make([]models.CustomizationOption, 0, len(g.Options))
		for _, o := range g.Options {
			if o.Name == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "option name is required").
					WithDetails(map[string]any{"group": g.Name})
			}
			options = append(options, models.CustomizationOption{
				Name:        o.Name,
				PriceDelta:  o.PriceDelta,
				IsAvailable: o.IsAvailable,
				Position:    o.Position,
			})
		}
		groups = append(groups, models.CustomizationGroup{
			Name:          g.Name,
			Kind:          g.Kind,
			Required:      g.Required,
			MaxSelections: g.MaxSelections,
			Position:      g.Position,
			Options:       options,
		})
	}

	components := make([]models.PackageComponent, 0, len(input.Components))
	for _, c := range input.Components {
		if c.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "component item id is required")
		}
		qty := c.Quantity
		if qty < 1 {
			qty = 1
		}
		components = append(components, models.PackageComponent{ItemID: c.ItemID, Quantity: qty})
	}

	return &models.MenuItem{
		Name:         input.Name,
		Description:  input.Description,
		Kind:         input.Kind,
		BasePrice:    input.BasePrice,
		Availability: enums.ItemAvailabilityActive,
		CategoryID:   input.CategoryID,
		ImageURL:     input.ImageURL,
		Tags:         input.Tags,
		Position:     input.Position,
		Groups:       groups,
		Components:   components,
	}, nil
}
