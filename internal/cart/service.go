package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/internal/pricing"
	"github.com/forkline/forkline-backend/pkg/db/models"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
	"github.com/forkline/forkline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogLoader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

// Service exposes cart reads and mutations.
type Service interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog catalogLoader
	logg    *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, catalog catalogLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, logg: logg}, nil
}

// AddLineInput is the payload for adding an item selection to the cart.
type AddLineInput struct {
	ItemID              uuid.UUID
	Quantity            int
	Selections          types.SelectionSet
	SpecialInstructions *string
}

func (s *service) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		// an empty cart is representable without persisting anything
		return &models.CartRecord{UserID: userID, Lines: []models.CartLine{}}, nil
	}
	return cart, nil
}

// AddLine merges the selection into an existing equivalent line or appends
// a new one. Merged lines are requoted against the current catalog price,
// never the price stored when the line was created.
func (s *service) AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"reason": "invalid_quantity", "quantity": input.Quantity})
	}

	item, err := s.catalog.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Availability.Orderable() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "item is not orderable").
			WithDetails(map[string]any{
				"reason":       "item_unavailable",
				"item_id":      item.ID.String(),
				"availability": item.Availability.String(),
			})
	}

	selectionKey := input.Selections.CanonicalKey()

	var result *models.CartLine
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, txErr := repo.GetOrCreateActiveCart(ctx, userID)
		if txErr != nil {
			return txErr
		}

		existing, txErr := repo.FindMergeableLine(ctx, record.ID, item.ID, selectionKey)
		if txErr != nil {
			return txErr
		}

		if existing != nil {
			existing.Quantity += input.Quantity
			quote, qErr := pricing.Price(item, existing.Selections, existing.Quantity)
			if qErr != nil {
				return qErr
			}
			existing.UnitPrice = quote.UnitPrice
			existing.TotalPrice = quote.TotalPrice
			existing.SpecialInstructions = input.SpecialInstructions
			if txErr := repo.UpdateLine(ctx, existing); txErr != nil {
				return txErr
			}
			result = existing
			return nil
		}

		if issues := pricing.Validate(item, input.Selections); len(issues) > 0 {
			return pricing.IssuesError(issues)
		}
		quote, qErr := pricing.Price(item, input.Selections, input.Quantity)
		if qErr != nil {
			return qErr
		}

		line := &models.CartLine{
			CartID:              record.ID,
			ItemID:              item.ID,
			Quantity:            input.Quantity,
			Selections:          input.Selections,
			SelectionKey:        selectionKey,
			SpecialInstructions: input.SpecialInstructions,
			UnitPrice:           quote.UnitPrice,
			TotalPrice:          quote.TotalPrice,
		}
		if txErr := repo.InsertLine(ctx, line); txErr != nil {
			return txErr
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"item_id":  item.ID.String(),
			"quantity": result.Quantity,
		}), "cart line upserted")
	}
	return result, nil
}

// UpdateLineQuantity sets the line's quantity and reprices it from the
// current catalog state.
func (s *service) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"reason": "invalid_quantity", "quantity": quantity})
	}

	var result *models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, txErr := repo.GetActiveCart(ctx, userID)
		if txErr != nil {
			return txErr
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}

		line, txErr := repo.FindLine(ctx, record.ID, lineID)
		if txErr != nil {
			return txErr
		}

		item, txErr := s.catalog.GetItem(ctx, line.ItemID)
		if txErr != nil {
			return txErr
		}

		quote, qErr := pricing.Price(item, line.Selections, quantity)
		if qErr != nil {
			return qErr
		}
		line.Quantity = quantity
		line.UnitPrice = quote.UnitPrice
		line.TotalPrice = quote.TotalPrice
		if txErr := repo.UpdateLine(ctx, line); txErr != nil {
			return txErr
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return s.repo.DeleteLine(ctx, cart.ID, lineID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.repo.ClearLines(ctx, cart.ID)
}
