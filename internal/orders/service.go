package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/internal/cart"
	"github.com/forkline/forkline-backend/internal/pricing"
	"github.com/forkline/forkline-backend/pkg/config"
	"github.com/forkline/forkline-backend/pkg/db/models"
	"github.com/forkline/forkline-backend/pkg/enums"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
	"github.com/forkline/forkline-backend/pkg/metrics"
	"github.com/forkline/forkline-backend/pkg/outbox"
	"github.com/forkline/forkline-backend/pkg/pagination"
	"github.com/forkline/forkline-backend/pkg/redis"
	"github.com/forkline/forkline-backend/pkg/types"
)

// Reconciliation rejection reason tags. Each failure keeps its own tag so
// clients can react specifically instead of treating everything as a
// generic bad request.
const (
	ReasonItemUnavailable        = "item_unavailable"
	ReasonInvalidCustomization   = "invalid_customization"
	ReasonPriceMismatch          = "price_mismatch"
	ReasonSubtotalMismatch       = "subtotal_mismatch"
	ReasonTotalMismatch          = "total_mismatch"
	ReasonFeeOutOfRange          = "fee_out_of_range"
	ReasonMissingDeliveryAddress = "missing_delivery_address"
	ReasonAddressNotFound        = "address_not_found"
	ReasonScheduleInPast         = "schedule_in_past"
	ReasonScheduleTooFar         = "schedule_too_far"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogLoader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type addressLoader interface {
	GetForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// Service exposes order placement, reads and status transitions.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	catalog   catalogLoader
	addresses addressLoader
	carts     *cart.Repository
	events    *outbox.Service
	idem      redis.IdempotencyStore
	cfg       config.CheckoutConfig
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an order service backed by the provided stack. The
// idempotency store may be nil; placement then runs without replay
// protection.
func NewService(
	repo *Repository,
	tx txRunner,
	catalog catalogLoader,
	addresses addressLoader,
	carts *cart.Repository,
	events *outbox.Service,
	idem redis.IdempotencyStore,
	cfg config.CheckoutConfig,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		catalog:   catalog,
		addresses: addresses,
		carts:     carts,
		events:    events,
		idem:      idem,
		cfg:       cfg,
		metrics:   orderMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// SubmittedLine is one client-claimed order line. Its prices are untrusted
// until reconciled.
type SubmittedLine struct {
	ItemID              uuid.UUID
	Quantity            int
	Selections          types.SelectionSet
	SpecialInstructions *string
	UnitPrice           decimal.Decimal
	TotalPrice          decimal.Decimal
}

// PlaceOrderInput is the full client-claimed order submission.
type PlaceOrderInput struct {
	IdempotencyKey    string
	Lines             []SubmittedLine
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	DeliveryFee       decimal.Decimal
	Total             decimal.Decimal
	DeliveryType      enums.DeliveryType
	DeliveryAddressID *uuid.UUID
	ScheduledFor      *time.Time
	Notes             *string
}

// Placement keys are held long enough to absorb client retries after
// timeouts; a day matches how long order history is actionable.
const placementIdempotencyTTL = 24 * time.Hour

const placementPendingMarker = "pending"

func rejection(reason, message string, extra map[string]any) error {
	details := map[string]any{"reason": reason}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// PlaceOrder recomputes every monetary figure from trusted catalog data and
// persists the order only when the client-claimed figures agree within the
// rounding tolerance. Any divergence rejects the whole submission; nothing
// is partially created.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one line")
	}
	if !input.DeliveryType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type").
			WithDetails(map[string]any{"delivery_type": string(input.DeliveryType)})
	}

	idemKey, replay, err := s.claimPlacement(ctx, userID, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}
	completed := false
	if idemKey != "" {
		// a rejected or failed attempt releases the key so the client can
		// correct the submission and retry with the same key
		defer func() {
			if !completed {
				if delErr := s.idem.Del(ctx, idemKey); delErr != nil && s.logg != nil {
					s.logg.Warn(ctx, "failed to release placement idempotency key")
				}
			}
		}()
	}

	now := s.now()

	orderLines, expectedSubtotal, err := s.reconcileLines(ctx, input.Lines)
	if err != nil {
		s.countRejected(err)
		return nil, err
	}

	if !pricing.WithinEpsilon(input.Subtotal, expectedSubtotal) {
		err := rejection(ReasonSubtotalMismatch, "submitted subtotal does not match recomputation", map[string]any{
			"submitted": input.Subtotal.StringFixed(2),
			"expected":  expectedSubtotal.StringFixed(2),
		})
		s.countRejected(err)
		return nil, err
	}

	if err := s.checkFees(input, expectedSubtotal); err != nil {
		s.countRejected(err)
		return nil, err
	}

	expectedTotal := expectedSubtotal.Add(input.Tax).Add(input.DeliveryFee).Round(2)
	if !pricing.WithinEpsilon(input.Total, expectedTotal) {
		err := rejection(ReasonTotalMismatch, "submitted total does not match recomputation", map[string]any{
			"submitted": input.Total.StringFixed(2),
			"expected":  expectedTotal.StringFixed(2),
		})
		s.countRejected(err)
		return nil, err
	}

	var addressID *uuid.UUID
	if input.DeliveryType == enums.DeliveryTypeDelivery {
		if input.DeliveryAddressID == nil || *input.DeliveryAddressID == uuid.Nil {
			err := rejection(ReasonMissingDeliveryAddress, "delivery orders require a delivery address", nil)
			s.countRejected(err)
			return nil, err
		}
		address, aErr := s.addresses.GetForUser(ctx, userID, *input.DeliveryAddressID)
		if aErr != nil {
			err := rejection(ReasonAddressNotFound, "delivery address not found", map[string]any{
				"address_id": input.DeliveryAddressID.String(),
			})
			s.countRejected(err)
			return nil, err
		}
		addressID = &address.ID
	}

	if input.ScheduledFor != nil {
		if !input.ScheduledFor.After(now) {
			err := rejection(ReasonScheduleInPast, "scheduled time must be in the future", map[string]any{
				"scheduled_for": input.ScheduledFor.UTC().Format(time.RFC3339),
			})
			s.countRejected(err)
			return nil, err
		}
		if s.cfg.ScheduleHorizon > 0 && input.ScheduledFor.After(now.Add(s.cfg.ScheduleHorizon)) {
			err := rejection(ReasonScheduleTooFar, "scheduled time is beyond the accepted horizon", map[string]any{
				"scheduled_for": input.ScheduledFor.UTC().Format(time.RFC3339),
			})
			s.countRejected(err)
			return nil, err
		}
	}

	order := &models.Order{
		UserID:            userID,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusUnpaid,
		DeliveryType:      input.DeliveryType,
		DeliveryAddressID: addressID,
		ScheduledFor:      input.ScheduledFor,
		Subtotal:          expectedSubtotal,
		Tax:               input.Tax.Round(2),
		DeliveryFee:       input.DeliveryFee.Round(2),
		Total:             expectedTotal,
		Notes:             input.Notes,
		Lines:             orderLines,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, txErr := repo.NextOrderNumber(ctx, s.cfg.OrderNumberAlias, now)
		if txErr != nil {
			return txErr
		}
		order.OrderNumber = number

		if txErr := repo.Create(ctx, order); txErr != nil {
			return txErr
		}

		cartRepo := s.carts.WithTx(tx)
		record, txErr := cartRepo.GetActiveCart(ctx, userID)
		if txErr != nil {
			return txErr
		}
		if record != nil {
			if txErr := cartRepo.MarkConverted(ctx, record.ID); txErr != nil {
				return txErr
			}
		}

		var scheduled *string
		if order.ScheduledFor != nil {
			v := order.ScheduledFor.UTC().Format(time.RFC3339)
			scheduled = &v
		}
		// a replayed placement that somehow reaches the transaction again
		// must not double-announce the order
		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
			Version:       1,
			OccurredAt:    now,
			Data: outbox.OrderCreatedData{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				UserID:       userID,
				DeliveryType: order.DeliveryType.String(),
				Total:        order.Total.StringFixed(2),
				LineCount:    len(order.Lines),
				ScheduledFor: scheduled,
				PlacedAt:     now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		if setErr := s.idem.Set(ctx, idemKey, order.ID.String(), placementIdempotencyTTL); setErr != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, "failed to record placement idempotency result")
			}
		} else {
			completed = true
		}
	}

	if s.metrics != nil {
		s.metrics.IncPlaced(order.DeliveryType.String())
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order placed")
	}
	return order, nil
}

// claimPlacement reserves the caller's idempotency key before any pricing
// work happens. It returns the reserved redis key, or the previously placed
// order when that key already completed. A key still holding the pending
// marker means another attempt is in flight and the caller gets a conflict.
// When the store is unreachable, placement proceeds without replay
// protection rather than blocking checkout.
func (s *service) claimPlacement(ctx context.Context, userID uuid.UUID, key string) (string, *models.Order, error) {
	if s.idem == nil || key == "" {
		return "", nil, nil
	}

	idemKey := s.idem.IdempotencyKey("orders:"+userID.String(), key)
	claimed, err := s.idem.SetNX(ctx, idemKey, placementPendingMarker, placementIdempotencyTTL)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "idempotency store unavailable; placing order without replay protection")
		}
		return "", nil, nil
	}
	if claimed {
		return idemKey, nil, nil
	}

	stored, err := s.idem.Get(ctx, idemKey)
	if err == nil && stored != placementPendingMarker {
		if orderID, parseErr := uuid.Parse(stored); parseErr == nil {
			if order, getErr := s.repo.Get(ctx, userID, orderID); getErr == nil {
				return "", order, nil
			}
		}
	}
	return "", nil, pkgerrors.New(pkgerrors.CodeConflict, "an order with this idempotency key is already being placed").
		WithDetails(map[string]any{"idempotency_key": key})
}

// reconcileLines resolves and reprices every submitted line, returning the
// server-trusted order lines and their subtotal.
func (s *service) reconcileLines(ctx context.Context, lines []SubmittedLine) ([]models.OrderLine, decimal.Decimal, error) {
	orderLines := make([]models.OrderLine, 0, len(lines))
	subtotal := decimal.Zero

	for i, line := range lines {
		if line.Quantity < 1 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"reason": "invalid_quantity", "line": i})
		}

		item, err := s.catalog.GetItem(ctx, line.ItemID)
		if err != nil {
			if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
				return nil, decimal.Zero, rejection(ReasonItemUnavailable, "item is not available", map[string]any{
					"line": i, "item_id": line.ItemID.String(),
				})
			}
			return nil, decimal.Zero, err
		}
		if item.Availability != enums.ItemAvailabilityActive {
			return nil, decimal.Zero, rejection(ReasonItemUnavailable, "item is not available", map[string]any{
				"line": i, "item_id": item.ID.String(), "availability": item.Availability.String(),
			})
		}

		// cart-time validation is re-run here so a manipulated submission
		// cannot smuggle in a now-invalid option whose price still matches
		if issues := pricing.Validate(item, line.Selections); len(issues) > 0 {
			return nil, decimal.Zero, rejection(ReasonInvalidCustomization, "customization selection is no longer valid", map[string]any{
				"line": i, "item_id": item.ID.String(), "issues": issues,
			})
		}

		quote, err := pricing.Price(item, line.Selections, line.Quantity)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !pricing.WithinEpsilon(line.TotalPrice, quote.TotalPrice) {
			return nil, decimal.Zero, rejection(ReasonPriceMismatch, "submitted line price does not match recomputation", map[string]any{
				"line":      i,
				"item_id":   item.ID.String(),
				"submitted": line.TotalPrice.StringFixed(2),
				"expected":  quote.TotalPrice.StringFixed(2),
			})
		}

		orderLines = append(orderLines, models.OrderLine{
			ItemID:              item.ID,
			Name:                item.Name,
			Quantity:            line.Quantity,
			Selections:          line.Selections,
			SpecialInstructions: line.SpecialInstructions,
			UnitPrice:           quote.UnitPrice,
			TotalPrice:          quote.TotalPrice,
		})
		subtotal = subtotal.Add(quote.TotalPrice)
	}

	return orderLines, subtotal.Round(2), nil
}

// checkFees range-checks the client-submitted tax and delivery fee. Neither
// is recomputed from a rate table; they only have to be non-negative and
// bounded by the configured policy.
func (s *service) checkFees(input PlaceOrderInput, expectedSubtotal decimal.Decimal) error {
	if input.Tax.IsNegative() {
		return rejection(ReasonFeeOutOfRange, "tax must be non-negative", nil)
	}
	maxTax := expectedSubtotal.Mul(s.cfg.TaxRateDecimal()).Round(2).Add(pricing.Epsilon)
	if input.Tax.GreaterThan(maxTax) {
		return rejection(ReasonFeeOutOfRange, "tax exceeds the configured rate", map[string]any{
			"submitted": input.Tax.StringFixed(2),
			"max":       maxTax.StringFixed(2),
		})
	}

	if input.DeliveryFee.IsNegative() {
		return rejection(ReasonFeeOutOfRange, "delivery fee must be non-negative", nil)
	}
	switch input.DeliveryType {
	case enums.DeliveryTypePickup:
		if !input.DeliveryFee.IsZero() {
			return rejection(ReasonFeeOutOfRange, "pickup orders carry no delivery fee", map[string]any{
				"submitted": input.DeliveryFee.StringFixed(2),
			})
		}
	case enums.DeliveryTypeDelivery:
		maxFee := s.cfg.DeliveryFeeDecimal().Add(pricing.Epsilon)
		if input.DeliveryFee.GreaterThan(maxFee) {
			return rejection(ReasonFeeOutOfRange, "delivery fee exceeds the configured fee", map[string]any{
				"submitted": input.DeliveryFee.StringFixed(2),
				"max":       maxFee.StringFixed(2),
			})
		}
	}
	return nil
}

func (s *service) countRejected(err error) {
	if s.metrics == nil {
		return
	}
	reason := "invalid"
	if appErr := pkgerrors.As(err); appErr != nil {
		if details, ok := appErr.Details().(map[string]any); ok {
			if tag, ok := details["reason"].(string); ok {
				reason = tag
			}
		}
	}
	s.metrics.IncRejected(reason)
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	return s.repo.Get(ctx, userID, orderID)
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.List(ctx, userID, params, filters)
}

// CancelOrder lets the owning user cancel while the order has not reached a
// terminal state.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	// Customers can only back out before the kitchen picks the order up.
	// Later cancellations go through staff via the status endpoint.
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	return s.transition(ctx, order, enums.OrderStatusCancelled, &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()})
}

// UpdateStatus advances the order along the fulfillment state machine.
// Admin path.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(next)})
	}
	order, err := s.repo.GetAny(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, next, nil)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
			WithDetails(map[string]any{"status": string(next)})
	}
	order, err := s.repo.GetAny(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.PaymentStatus = next
	return order, nil
}

func (s *service) transition(ctx context.Context, order *models.Order, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
			WithDetails(map[string]any{
				"order_id": order.ID.String(),
				"from":     order.Status.String(),
				"to":       next.String(),
			})
	}

	from := order.Status
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if txErr := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, next); txErr != nil {
			return txErr
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data: outbox.OrderStatusChangedData{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				FromStatus:  from.String(),
				ToStatus:    next.String(),
				ChangedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_number": order.OrderNumber,
			"from":         from.String(),
			"to":           next.String(),
		}), "order status changed")
	}
	return order, nil
}
