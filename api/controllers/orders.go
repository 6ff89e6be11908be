package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forkline/forkline-backend/api/responses"
	"github.com/forkline/forkline-backend/api/validators"
	"github.com/forkline/forkline-backend/internal/orders"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
	"github.com/forkline/forkline-backend/pkg/pagination"
)

type orderLinePayload struct {
	ItemID              uuid.UUID              `json:"itemId" validate:"required"`
	Quantity            int                    `json:"quantity" validate:"required,min=1"`
	Selections          []cartSelectionPayload `json:"selections,omitempty" validate:"dive"`
	SpecialInstructions *string                `json:"specialInstructions,omitempty"`
	UnitPrice           string                 `json:"unitPrice" validate:"required"`
	TotalPrice          string                 `json:"totalPrice" validate:"required"`
}

type placeOrderPayload struct {
	Lines             []orderLinePayload `json:"lines" validate:"required,min=1,dive"`
	Subtotal          string             `json:"subtotal" validate:"required"`
	Tax               string             `json:"tax" validate:"required"`
	DeliveryFee       string             `json:"deliveryFee" validate:"required"`
	Total             string             `json:"total" validate:"required"`
	DeliveryType      string             `json:"deliveryType" validate:"required,oneof=pickup delivery"`
	DeliveryAddressID *uuid.UUID         `json:"deliveryAddressId,omitempty"`
	ScheduledFor      *time.Time         `json:"scheduledFor,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

type paymentStatusPayload struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

func (p placeOrderPayload) toInput() (orders.PlaceOrderInput, error) {
	deliveryType, err := enums.ParseDeliveryType(p.DeliveryType)
	if err != nil {
		return orders.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type")
	}

	parse := func(field, value string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
				WithDetails(map[string]any{"field": field})
		}
		return d, nil
	}

	input := orders.PlaceOrderInput{
		DeliveryType:      deliveryType,
		DeliveryAddressID: p.DeliveryAddressID,
		ScheduledFor:      p.ScheduledFor,
		Notes:             p.Notes,
	}
	if input.Subtotal, err = parse("subtotal", p.Subtotal); err != nil {
		return orders.PlaceOrderInput{}, err
	}
	if input.Tax, err = parse("tax", p.Tax); err != nil {
		return orders.PlaceOrderInput{}, err
	}
	if input.DeliveryFee, err = parse("deliveryFee", p.DeliveryFee); err != nil {
		return orders.PlaceOrderInput{}, err
	}
	if input.Total, err = parse("total", p.Total); err != nil {
		return orders.PlaceOrderInput{}, err
	}

	for i, line := range p.Lines {
		unitPrice, err := parse("lines.unitPrice", line.UnitPrice)
		if err != nil {
			return orders.PlaceOrderInput{}, err
		}
		totalPrice, err := parse("lines.totalPrice", line.TotalPrice)
		if err != nil {
			return orders.PlaceOrderInput{}, err
		}
		submitted := orders.SubmittedLine{
			ItemID:              line.ItemID,
			Quantity:            line.Quantity,
			SpecialInstructions: line.SpecialInstructions,
			UnitPrice:           unitPrice,
			TotalPrice:          totalPrice,
		}
		submitted.Selections = addCartLinePayload{Selections: p.Lines[i].Selections}.selectionSet()
		input.Lines = append(input.Lines, submitted)
	}
	return input, nil
}

func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

		order, err := svc.PlaceOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := orders.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("paymentStatus")); raw != "" {
			paymentStatus, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			filters.PaymentStatus = &paymentStatus
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListOrders(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateOrderStatus is the admin fulfillment transition endpoint.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateOrderPaymentStatus records the externally-settled payment label.
func UpdateOrderPaymentStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentStatus, err := enums.ParsePaymentStatus(payload.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.UpdatePaymentStatus(r.Context(), orderID, paymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
