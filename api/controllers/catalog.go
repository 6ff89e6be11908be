package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/api/responses"
	"github.com/forkline/forkline-backend/api/validators"
	"github.com/forkline/forkline-backend/internal/catalog"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
	"github.com/forkline/forkline-backend/pkg/pagination"
)

type catalogItemPayload struct {
	Name        string                    `json:"name" validate:"required,max=200"`
	Description *string                   `json:"description,omitempty"`
	Kind        string                    `json:"kind" validate:"required,oneof=item package"`
	BasePrice   string                    `json:"basePrice" validate:"required"`
	CategoryID  *uuid.UUID                `json:"categoryId,omitempty"`
	ImageURL    *string                   `json:"imageUrl,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Position    int                       `json:"position"`
	Groups      []catalogGroupPayload     `json:"groups,omitempty" validate:"dive"`
	Components  []catalogComponentPayload `json:"components,omitempty" validate:"dive"`
}

type catalogGroupPayload struct {
	Name          string                 `json:"name" validate:"required,max=120"`
	Kind          string                 `json:"kind" validate:"required,oneof=single multi text"`
	Required      bool                   `json:"required"`
	MaxSelections *int                   `json:"maxSelections,omitempty"`
	Position      int                    `json:"position"`
	Options       []catalogOptionPayload `json:"options,omitempty" validate:"dive"`
}

type catalogOptionPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	PriceDelta  string `json:"priceDelta" validate:"required"`
	IsAvailable bool   `json:"isAvailable"`
	Position    int    `json:"position"`
}

type catalogComponentPayload struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type categoryPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Position int    `json:"position"`
}

type availabilityPayload struct {
	Availability string `json:"availability" validate:"required"`
}

func (p catalogItemPayload) toInput() (catalog.ItemInput, error) {
	kind, err := enums.ParseItemKind(p.Kind)
	if err != nil {
		return catalog.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item kind")
	}
	basePrice, err := decimal.NewFromString(p.BasePrice)
	if err != nil {
		return catalog.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base price")
	}

	input := catalog.ItemInput{
		Name:        p.Name,
		Description: p.Description,
		Kind:        kind,
		BasePrice:   basePrice,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		Tags:        p.Tags,
		Position:    p.Position,
	}

	for _, group := range p.Groups {
		groupKind, err := enums.ParseSelectionKind(group.Kind)
		if err != nil {
			return catalog.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group kind")
		}
		groupInput := catalog.GroupInput{
			Name:          group.Name,
			Kind:          groupKind,
			Required:      group.Required,
			MaxSelections: group.MaxSelections,
			Position:      group.Position,
		}
		for _, option := range group.Options {
			delta, err := decimal.NewFromString(option.PriceDelta)
			if err != nil {
				return catalog.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price delta")
			}
			groupInput.Options = append(groupInput.Options, catalog.OptionInput{
				Name:        option.Name,
				PriceDelta:  delta,
				IsAvailable: option.IsAvailable,
				Position:    option.Position,
			})
		}
		input.Groups = append(input.Groups, groupInput)
	}

	for _, component := range p.Components {
		input.Components = append(input.Components, catalog.ComponentInput{
			ItemID:   component.ItemID,
			Quantity: component.Quantity,
		})
	}
	return input, nil
}

func ListMenuItems(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalog.ListFilters{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
		}
		filters.CategoryID, err = validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("availability")); raw != "" {
			availability, err := enums.ParseItemAvailability(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability"))
				return
			}
			filters.Availability = &availability
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParseItemKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			filters.Kind = &kind
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListItems(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetMenuItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ListMenuCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func CreateMenuItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload catalogItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateMenuItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload catalogItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func SetMenuItemAvailability(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload availabilityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := enums.ParseItemAvailability(payload.Availability)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability"))
			return
		}

		if err := svc.SetAvailability(r.Context(), itemID, availability); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"availability": availability.String()})
	}
}

func DeleteMenuItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func CreateMenuCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), payload.Name, payload.Position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}
