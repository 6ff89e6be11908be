package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()

	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testTxRunner{db: db})
	require.NoError(t, err)
	return svc, repo
}

func TestServiceCreateItemValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ItemInput
	}{
		{"missing name", ItemInput{Kind: enums.ItemKindItem, BasePrice: decimal.RequireFromString("5.00")}},
		{"invalid kind", ItemInput{Name: "Dish", Kind: "combo", BasePrice: decimal.RequireFromString("5.00")}},
		{"negative price", ItemInput{Name: "Dish", Kind: enums.ItemKindItem, BasePrice: decimal.RequireFromString("-1.00")}},
		{"max selections on single group", ItemInput{
			Name:      "Dish",
			Kind:      enums.ItemKindItem,
			BasePrice: decimal.RequireFromString("5.00"),
			Groups: []GroupInput{{
				Name:          "Sauce",
				Kind:          enums.SelectionKindSingle,
				MaxSelections: intPtr(2),
			}},
		}},
		{"text group with options", ItemInput{
			Name:      "Dish",
			Kind:      enums.ItemKindItem,
			BasePrice: decimal.RequireFromString("5.00"),
			Groups: []GroupInput{{
				Name:    "Note",
				Kind:    enums.SelectionKindText,
				Options: []OptionInput{{Name: "Huh"}},
			}},
		}},
		{"components on single item", ItemInput{
			Name:       "Dish",
			Kind:       enums.ItemKindItem,
			BasePrice:  decimal.RequireFromString("5.00"),
			Components: []ComponentInput{{ItemID: uuid.New(), Quantity: 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, tc.input)
			require.Error(t, err)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestServiceCreateAndUpdateItem(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ItemInput{
		Name:      "Family Feast",
		Kind:      enums.ItemKindPackage,
		BasePrice: decimal.RequireFromString("42.00"),
		Groups: []GroupInput{{
			Name:     "Drink Choice",
			Kind:     enums.SelectionKindSingle,
			Required: true,
			Options: []OptionInput{
				{Name: "Cola", IsAvailable: true},
				{Name: "Lemonade", IsAvailable: true},
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ItemAvailabilityActive, created.Availability)
	require.Len(t, created.Groups, 1)

	updated, err := svc.UpdateItem(ctx, created.ID, ItemInput{
		Name:      "Family Feast XL",
		Kind:      enums.ItemKindPackage,
		BasePrice: decimal.RequireFromString("49.00"),
		Groups: []GroupInput{{
			Name: "Dessert Choice",
			Kind: enums.SelectionKindSingle,
			Options: []OptionInput{
				{Name: "Flan", IsAvailable: true},
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Family Feast XL", updated.Name)
	require.Len(t, updated.Groups, 1)
	assert.Equal(t, "Dessert Choice", updated.Groups[0].Name)

	loaded, err := repo.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, loaded.BasePrice.Equal(decimal.RequireFromString("49.00")))
}

func TestServiceUpdateMissingItem(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateItem(context.Background(), uuid.New(), ItemInput{
		Name:      "Ghost Dish",
		Kind:      enums.ItemKindItem,
		BasePrice: decimal.RequireFromString("5.00"),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestServiceSetAvailability(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ItemInput{
		Name:      "Soup of the Day",
		Kind:      enums.ItemKindItem,
		BasePrice: decimal.RequireFromString("6.50"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetAvailability(ctx, created.ID, enums.ItemAvailabilitySoldOut))
	loaded, err := repo.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemAvailabilitySoldOut, loaded.Availability)

	err = svc.SetAvailability(ctx, created.ID, "retired")
	require.Error(t, err)
}

func intPtr(v int) *int {
	return &v
}
