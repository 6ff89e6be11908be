package types

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// SelectedCustomization records the choices made against one customization
// group: the picked option ids for single/multi groups, or a freeform text
// value for text groups.
type SelectedCustomization struct {
	GroupID   uuid.UUID   `json:"group_id"`
	OptionIDs []uuid.UUID `json:"option_ids,omitempty"`
	Text      *string     `json:"text,omitempty"`
}

// TextValue returns the trimmed text value, or "" when none was supplied.
func (s SelectedCustomization) TextValue() string {
	if s.Text == nil {
		return ""
	}
	return strings.TrimSpace(*s.Text)
}

// SelectionSet is the full customization selection attached to a cart or
// order line. It is stored as jsonb and compared via CanonicalKey.
type SelectionSet []SelectedCustomization

// ByGroup collapses the set to one entry per customization group. Entries
// repeating a group are merged: their option ids are unioned (duplicates
// dropped, then sorted) and the last non-empty text wins. Validation,
// pricing and the merge key all read this collapsed view, so repeating a
// group or an option in the payload cannot change what a line costs.
func (s SelectionSet) ByGroup() map[uuid.UUID]SelectedCustomization {
	out := make(map[uuid.UUID]SelectedCustomization, len(s))
	for _, sel := range s {
		merged, ok := out[sel.GroupID]
		if !ok {
			merged = SelectedCustomization{GroupID: sel.GroupID}
		}
		merged.OptionIDs = append(merged.OptionIDs, sel.OptionIDs...)
		if sel.TextValue() != "" {
			merged.Text = sel.Text
		}
		out[sel.GroupID] = merged
	}
	for id, sel := range out {
		sel.OptionIDs = dedupeOptions(sel.OptionIDs)
		out[id] = sel
	}
	return out
}

// Canonical returns the normalized form of the set: one merged entry per
// group, ordered by group id.
func (s SelectionSet) Canonical() SelectionSet {
	if len(s) == 0 {
		return nil
	}
	grouped := s.ByGroup()
	out := make(SelectionSet, 0, len(grouped))
	for _, sel := range grouped {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GroupID.String() < out[j].GroupID.String()
	})
	return out
}

// CanonicalKey derives a stable comparison key that is independent of the
// order in which the client listed groups or options. Two lines with the
// same item and the same canonical key are mergeable in the cart.
func (s SelectionSet) CanonicalKey() string {
	canonical := s.Canonical()
	if len(canonical) == 0 {
		return ""
	}

	parts := make([]string, 0, len(canonical))
	for _, sel := range canonical {
		optionIDs := make([]string, 0, len(sel.OptionIDs))
		for _, oid := range sel.OptionIDs {
			optionIDs = append(optionIDs, oid.String())
		}

		var b strings.Builder
		b.WriteString(sel.GroupID.String())
		b.WriteString(":")
		b.WriteString(strings.Join(optionIDs, ","))
		if text := sel.TextValue(); text != "" {
			b.WriteString("~")
			b.WriteString(text)
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "|")
}

// Equal reports order-independent structural equality of two selections.
func (s SelectionSet) Equal(other SelectionSet) bool {
	return s.CanonicalKey() == other.CanonicalKey()
}

func dedupeOptions(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
