package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/types"
)

func strPtr(v string) *string {
	return &v
}

func TestValidateSpiceScenario(t *testing.T) {
	item, group, mild, hot := spiceItem()

	// selecting the unavailable Hot option
	issues := Validate(item, types.SelectionSet{{GroupID: group.ID, OptionIDs: []uuid.UUID{hot.ID}}})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonOptionUnavailable, issues[0].Reason)
	assert.Equal(t, group.ID, issues[0].GroupID)
	require.NotNil(t, issues[0].OptionID)
	assert.Equal(t, hot.ID, *issues[0].OptionID)

	// Mild is fine, and prices at base
	selections := types.SelectionSet{{GroupID: group.ID, OptionIDs: []uuid.UUID{mild.ID}}}
	assert.Empty(t, Validate(item, selections))

	quote, err := Price(item, selections, 1)
	require.NoError(t, err)
	assert.Equal(t, "12.00", quote.UnitPrice.StringFixed(2))
}

func TestValidateMissingRequiredGroup(t *testing.T) {
	item, group, _, _ := spiceItem()

	issues := Validate(item, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonMissingRequired, issues[0].Reason)
	assert.Equal(t, group.ID, issues[0].GroupID)
}

func TestValidateRequiredGroupWithNoOptionSelected(t *testing.T) {
	item, group, _, _ := spiceItem()

	issues := Validate(item, types.SelectionSet{{GroupID: group.ID}})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonNoOptionSelected, issues[0].Reason)
}

func TestValidateRequiredText(t *testing.T) {
	nameGroup := models.CustomizationGroup{
		ID:       uuid.New(),
		Name:     "Cake Message",
		Kind:     enums.SelectionKindText,
		Required: true,
	}
	item := plainItem("30.00")
	item.Groups = []models.CustomizationGroup{nameGroup}

	issues := Validate(item, types.SelectionSet{{GroupID: nameGroup.ID, Text: strPtr("   ")}})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonEmptyRequiredText, issues[0].Reason)

	assert.Empty(t, Validate(item, types.SelectionSet{{GroupID: nameGroup.ID, Text: strPtr("Happy Birthday")}}))
}

func TestValidateTooManySelections(t *testing.T) {
	options := []models.CustomizationOption{
		{ID: uuid.New(), Name: "Olives", IsAvailable: true},
		{ID: uuid.New(), Name: "Onions", IsAvailable: true},
		{ID: uuid.New(), Name: "Peppers", IsAvailable: true},
	}
	toppings := models.CustomizationGroup{
		ID:            uuid.New(),
		Name:          "Toppings",
		Kind:          enums.SelectionKindMulti,
		MaxSelections: intPtr(2),
		Options:       options,
	}
	item := plainItem("14.00")
	item.Groups = []models.CustomizationGroup{toppings}

	issues := Validate(item, types.SelectionSet{{
		GroupID:   toppings.ID,
		OptionIDs: []uuid.UUID{options[0].ID, options[1].ID, options[2].ID},
	}})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonTooManySelections, issues[0].Reason)
	require.NotNil(t, issues[0].Max)
	require.NotNil(t, issues[0].Actual)
	assert.Equal(t, 2, *issues[0].Max)
	assert.Equal(t, 3, *issues[0].Actual)
}

func TestValidateMaxSelectionsAcrossRepeatedEntries(t *testing.T) {
	options := []models.CustomizationOption{
		{ID: uuid.New(), Name: "Olives", IsAvailable: true},
		{ID: uuid.New(), Name: "Onions", IsAvailable: true},
		{ID: uuid.New(), Name: "Peppers", IsAvailable: true},
	}
	toppings := models.CustomizationGroup{
		ID:            uuid.New(),
		Name:          "Toppings",
		Kind:          enums.SelectionKindMulti,
		MaxSelections: intPtr(2),
		Options:       options,
	}
	item := plainItem("14.00")
	item.Groups = []models.CustomizationGroup{toppings}

	// two picks in one entry plus a third in a repeated entry must count as three
	issues := Validate(item, types.SelectionSet{
		{GroupID: toppings.ID, OptionIDs: []uuid.UUID{options[0].ID, options[1].ID}},
		{GroupID: toppings.ID, OptionIDs: []uuid.UUID{options[2].ID}},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonTooManySelections, issues[0].Reason)
	require.NotNil(t, issues[0].Actual)
	assert.Equal(t, 3, *issues[0].Actual)

	// repeating the same pick does not inflate the count
	issues = Validate(item, types.SelectionSet{
		{GroupID: toppings.ID, OptionIDs: []uuid.UUID{options[0].ID}},
		{GroupID: toppings.ID, OptionIDs: []uuid.UUID{options[0].ID, options[1].ID}},
	})
	assert.Empty(t, issues)
}

func TestValidateUnknownOptionIsUnavailable(t *testing.T) {
	item, group, mild, _ := spiceItem()

	issues := Validate(item, types.SelectionSet{{GroupID: group.ID, OptionIDs: []uuid.UUID{mild.ID, uuid.New()}}})
	require.Len(t, issues, 1)
	assert.Equal(t, ReasonOptionUnavailable, issues[0].Reason)
}

func TestValidateIsIdempotent(t *testing.T) {
	item, group, _, hot := spiceItem()
	selections := types.SelectionSet{{GroupID: group.ID, OptionIDs: []uuid.UUID{hot.ID}}}

	first := Validate(item, selections)
	second := Validate(item, selections)
	assert.Equal(t, first, second)
}

func TestValidateCollectsAllIssues(t *testing.T) {
	item, _, _, _ := spiceItem()
	noteGroup := models.CustomizationGroup{
		ID:       uuid.New(),
		Name:     "Allergy Note",
		Kind:     enums.SelectionKindText,
		Required: true,
	}
	item.Groups = append(item.Groups, noteGroup)

	issues := Validate(item, nil)
	require.Len(t, issues, 2)
	assert.Equal(t, ReasonMissingRequired, issues[0].Reason)
	assert.Equal(t, ReasonMissingRequired, issues[1].Reason)
}

func TestIssuesError(t *testing.T) {
	assert.NoError(t, IssuesError(nil))

	err := IssuesError([]SelectionIssue{{Reason: ReasonMissingRequired, GroupID: uuid.New()}})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "invalid_customization", details["reason"])
}
