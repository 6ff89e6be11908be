package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS menu_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  kind TEXT NOT NULL DEFAULT 'item',
  base_price TEXT NOT NULL,
  availability TEXT NOT NULL DEFAULT 'active',
  category_id TEXT,
  image_url TEXT,
  tags TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS customization_groups (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  required INTEGER NOT NULL DEFAULT 0,
  max_selections INTEGER,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS customization_options (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price_delta TEXT NOT NULL DEFAULT '0',
  is_available INTEGER NOT NULL DEFAULT 1,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS package_components (
  id TEXT PRIMARY KEY,
  package_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedItem(t *testing.T, repo *Repository, name string, basePrice string, created time.Time) *models.MenuItem {
	t.Helper()

	item := &models.MenuItem{
		Name:         name,
		Kind:         enums.ItemKindItem,
		BasePrice:    decimal.RequireFromString(basePrice),
		Availability: enums.ItemAvailabilityActive,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	created2, err := repo.CreateItem(context.Background(), item)
	require.NoError(t, err)
	return created2
}

func TestRepositoryCreateAndGetItemWithGroups(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	item := &models.MenuItem{
		Name:         "Ramen Bowl",
		Kind:         enums.ItemKindItem,
		BasePrice:    decimal.RequireFromString("12.00"),
		Availability: enums.ItemAvailabilityActive,
		Groups: []models.CustomizationGroup{
			{
				Name:     "Spice Level",
				Kind:     enums.SelectionKindSingle,
				Required: true,
				Position: 1,
				Options: []models.CustomizationOption{
					{Name: "Mild", PriceDelta: decimal.Zero, IsAvailable: true, Position: 1},
					{Name: "Hot", PriceDelta: decimal.RequireFromString("1.50"), IsAvailable: false, Position: 2},
				},
			},
			{
				Name:     "Toppings",
				Kind:     enums.SelectionKindMulti,
				Position: 2,
				Options: []models.CustomizationOption{
					{Name: "Egg", PriceDelta: decimal.RequireFromString("1.00"), IsAvailable: true, Position: 1},
				},
			},
		},
	}

	created, err := repo.CreateItem(context.Background(), item)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.GetItem(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Groups, 2)
	assert.Equal(t, "Spice Level", loaded.Groups[0].Name)
	require.Len(t, loaded.Groups[0].Options, 2)
	assert.Equal(t, "Mild", loaded.Groups[0].Options[0].Name)
	assert.False(t, loaded.Groups[0].Options[1].IsAvailable)
	assert.True(t, loaded.BasePrice.Equal(decimal.RequireFromString("12.00")))
}

func TestRepositoryGetItemNotFound(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	_, err := repo.GetItem(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRepositoryListItemsPagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	seedItem(t, repo, "Older Dish", "8.00", now.Add(-time.Hour))
	newer := seedItem(t, repo, "Newer Dish", "9.00", now)

	list, err := repo.ListItems(context.Background(), pagination.Params{Limit: 1}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, newer.ID, list.Items[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListItems(context.Background(), pagination.Params{Limit: 1, Cursor: list.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Older Dish", second.Items[0].Name)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListItemsFilters(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	active := seedItem(t, repo, "Pho Special", "11.00", now)
	soldOut := seedItem(t, repo, "Banh Mi", "7.50", now.Add(-time.Minute))
	require.NoError(t, repo.SetAvailability(context.Background(), soldOut.ID, enums.ItemAvailabilitySoldOut))

	availability := enums.ItemAvailabilityActive
	list, err := repo.ListItems(context.Background(), pagination.Params{Limit: 10}, ListFilters{Availability: &availability})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, active.ID, list.Items[0].ID)

	list, err = repo.ListItems(context.Background(), pagination.Params{Limit: 10}, ListFilters{Query: "pho"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Pho Special", list.Items[0].Name)
}

func TestRepositoryReplaceGroups(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	item := seedItem(t, repo, "Burrito", "10.00", time.Now().UTC())

	first := []models.CustomizationGroup{{
		Name: "Salsa",
		Kind: enums.SelectionKindSingle,
		Options: []models.CustomizationOption{
			{Name: "Verde", IsAvailable: true},
		},
	}}
	require.NoError(t, repo.ReplaceGroups(context.Background(), item.ID, first))

	replacement := []models.CustomizationGroup{{
		Name: "Protein",
		Kind: enums.SelectionKindSingle,
		Options: []models.CustomizationOption{
			{Name: "Chicken", IsAvailable: true},
			{Name: "Carnitas", PriceDelta: decimal.RequireFromString("1.25"), IsAvailable: true},
		},
	}}
	require.NoError(t, repo.ReplaceGroups(context.Background(), item.ID, replacement))

	loaded, err := repo.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Groups, 1)
	assert.Equal(t, "Protein", loaded.Groups[0].Name)
	assert.Len(t, loaded.Groups[0].Options, 2)
}

func TestRepositoryDeleteItem(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	item := seedItem(t, repo, "Doomed Dish", "6.00", time.Now().UTC())
	require.NoError(t, repo.DeleteItem(context.Background(), item.ID))

	err := repo.DeleteItem(context.Background(), item.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRepositoryCategories(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	_, err := repo.CreateCategory(context.Background(), &models.MenuCategory{Name: "Sides", Position: 2})
	require.NoError(t, err)
	_, err = repo.CreateCategory(context.Background(), &models.MenuCategory{Name: "Mains", Position: 1})
	require.NoError(t, err)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Mains", categories[0].Name)
	assert.Equal(t, "Sides", categories[1].Name)
}
