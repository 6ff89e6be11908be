package pricing

import (
	"github.com/google/uuid"

	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/types"
)

// Selection issue reason tags. Clients receive the full list so every
// problem can be fixed in one round trip.
const (
	ReasonMissingRequired   = "missing_required"
	ReasonEmptyRequiredText = "empty_required_text"
	ReasonNoOptionSelected  = "no_option_selected"
	ReasonTooManySelections = "too_many_selections"
	ReasonOptionUnavailable = "option_unavailable"
)

// SelectionIssue describes one constraint violation found in a candidate
// customization selection.
type SelectionIssue struct {
	Reason   string     `json:"reason"`
	GroupID  uuid.UUID  `json:"groupId"`
	OptionID *uuid.UUID `json:"optionId,omitempty"`
	Max      *int       `json:"max,omitempty"`
	Actual   *int       `json:"actual,omitempty"`
}

// Validate checks a candidate selection against the item's customization
// constraints. An empty result is the only "valid" signal; the function
// never fails. Selections referencing groups the item does not carry are
// ignored, mirroring Price.
//
// Constraints are checked against the canonical view of the selection, so
// splitting a group's picks across repeated entries cannot slip past
// maxSelections.
func Validate(item Priceable, selections types.SelectionSet) []SelectionIssue {
	var issues []SelectionIssue

	canonical := selections.Canonical()
	byGroup := canonical.ByGroup()

	for _, group := range item.CustomizationGroups() {
		if !group.Required {
			continue
		}
		sel, ok := byGroup[group.ID]
		if !ok {
			issues = append(issues, SelectionIssue{Reason: ReasonMissingRequired, GroupID: group.ID})
			continue
		}
		switch group.Kind {
		case enums.SelectionKindText:
			if sel.TextValue() == "" {
				issues = append(issues, SelectionIssue{Reason: ReasonEmptyRequiredText, GroupID: group.ID})
			}
		default:
			if len(sel.OptionIDs) == 0 {
				issues = append(issues, SelectionIssue{Reason: ReasonNoOptionSelected, GroupID: group.ID})
			}
		}
	}

	groups := groupIndex(item)
	for _, sel := range canonical {
		group, ok := groups[sel.GroupID]
		if !ok {
			continue
		}
		if group.Kind == enums.SelectionKindMulti && group.MaxSelections != nil && len(sel.OptionIDs) > *group.MaxSelections {
			max := *group.MaxSelections
			actual := len(sel.OptionIDs)
			issues = append(issues, SelectionIssue{
				Reason:  ReasonTooManySelections,
				GroupID: group.ID,
				Max:     &max,
				Actual:  &actual,
			})
		}
		if group.Kind == enums.SelectionKindText {
			continue
		}
		for _, optionID := range sel.OptionIDs {
			option := group.OptionByID(optionID)
			if option == nil || !option.IsAvailable {
				id := optionID
				issues = append(issues, SelectionIssue{
					Reason:   ReasonOptionUnavailable,
					GroupID:  group.ID,
					OptionID: &id,
				})
			}
		}
	}

	return issues
}

// IssuesError converts a non-empty issue list into the transportable
// validation error carried through the service layer.
func IssuesError(issues []SelectionIssue) error {
	if len(issues) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "customization selection is invalid").
		WithDetails(map[string]any{
			"reason": "invalid_customization",
			"issues": issues,
		})
}
