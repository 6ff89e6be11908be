package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/pagination"
)

// Repository provides persistence for menu items and their customizations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListFilters narrows menu item listings.
type ListFilters struct {
	CategoryID   *uuid.UUID
	Kind         *enums.ItemKind
	Availability *enums.ItemAvailability
	Query        string
}

// ItemList is one page of menu items.
type ItemList struct {
	Items      []models.MenuItem
	NextCursor string
}

// GetItem loads a menu item with its customization groups, options and
// package components. Group and option ordering follows catalog position.
func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Groups.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Components").
		First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
				WithDetails(map[string]any{"item_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu item")
	}
	return &item, nil
}

// ListItems returns a cursor-paginated page of menu items matching the
// filters, newest first.
func (r *Repository) ListItems(ctx context.Context, params pagination.Params, filters ListFilters) (*ItemList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.MenuItem{})
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Availability != nil {
		query = query.Where("availability = ?", *filters.Availability)
	}
	if filters.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filters.Query)+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.MenuItem
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing menu items")
	}

	list := &ItemList{}
	if len(items) > limit {
		last := items[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		items = items[:limit]
	}
	list.Items = items
	return list, nil
}

// CreateItem persists a new menu item with its nested groups and options.
func (r *Repository) CreateItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	ensureChildIDs(item)
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating menu item")
	}
	return item, nil
}

// UpdateItem saves the item's scalar columns.
func (r *Repository) UpdateItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	err := r.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"name":         item.Name,
			"description":  item.Description,
			"kind":         item.Kind,
			"base_price":   item.BasePrice,
			"availability": item.Availability,
			"category_id":  item.CategoryID,
			"image_url":    item.ImageURL,
			"tags":         item.Tags,
			"position":     item.Position,
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating menu item")
	}
	return item, nil
}

// SetAvailability flips just the availability column.
func (r *Repository) SetAvailability(ctx context.Context, id uuid.UUID, availability enums.ItemAvailability) error {
	result := r.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("id = ?", id).
		Update("availability", availability)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating availability")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
			WithDetails(map[string]any{"item_id": id.String()})
	}
	return nil
}

// DeleteItem removes the item; groups, options and components cascade.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuItem{}, "id = ?", id)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "deleting menu item")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
			WithDetails(map[string]any{"item_id": id.String()})
	}
	return nil
}

// ReplaceGroups swaps the item's customization groups for the provided set.
func (r *Repository) ReplaceGroups(ctx context.Context, itemID uuid.UUID, groups []models.CustomizationGroup) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("item_id = ?", itemID).Delete(&models.CustomizationGroup{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing customization groups")
	}
	if len(groups) == 0 {
		return nil
	}
	for i := range groups {
		groups[i].ItemID = itemID
		if groups[i].ID == uuid.Nil {
			groups[i].ID = uuid.New()
		}
		for j := range groups[i].Options {
			groups[i].Options[j].GroupID = groups[i].ID
			if groups[i].Options[j].ID == uuid.Nil {
				groups[i].Options[j].ID = uuid.New()
			}
		}
	}
	if err := tx.Create(&groups).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating customization groups")
	}
	return nil
}

// ReplaceComponents swaps a package's component list.
func (r *Repository) ReplaceComponents(ctx context.Context, packageID uuid.UUID, components []models.PackageComponent) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("package_id = ?", packageID).Delete(&models.PackageComponent{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing package components")
	}
	if len(components) == 0 {
		return nil
	}
	for i := range components {
		components[i].PackageID = packageID
		if components[i].ID == uuid.Nil {
			components[i].ID = uuid.New()
		}
	}
	if err := tx.Create(&components).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating package components")
	}
	return nil
}

// ListCategories returns all categories in display order.
func (r *Repository) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := r.db.WithContext(ctx).
		Order("position ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	return categories, nil
}

// CreateCategory persists a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.MenuCategory) (*models.MenuCategory, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return category, nil
}

func ensureChildIDs(item *models.MenuItem) {
	for i := range item.Groups {
		if item.Groups[i].ID == uuid.Nil {
			item.Groups[i].ID = uuid.New()
		}
		item.Groups[i].ItemID = item.ID
		for j := range item.Groups[i].Options {
			if item.Groups[i].Options[j].ID == uuid.Nil {
				item.Groups[i].Options[j].ID = uuid.New()
			}
			item.Groups[i].Options[j].GroupID = item.Groups[i].ID
		}
	}
	for i := range item.Components {
		if item.Components[i].ID == uuid.Nil {
			item.Components[i].ID = uuid.New()
		}
		item.Components[i].PackageID = item.ID
	}
}
