package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkline/forkline-backend/pkg/db/models"
	pkgerrors "github.com/forkline/forkline-backend/pkg/errors"
	"github.com/forkline/forkline-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's saved delivery addresses.
type Service interface {
	GetForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Input carries the user-editable address fields.
type Input struct {
	Label      string
	Street     string
	Unit       *string
	City       string
	State      string
	PostalCode string
	IsDefault  bool
}

func (in Input) validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(in.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(in.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(in.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(in.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func (s *service) GetForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	return s.repo.GetForUser(ctx, userID, addressID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:     userID,
		Label:      strings.TrimSpace(input.Label),
		Street:     strings.TrimSpace(input.Street),
		Unit:       input.Unit,
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		IsDefault:  input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if txErr := repo.ClearDefault(ctx, userID); txErr != nil {
				return txErr
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, txErr := repo.GetForUser(ctx, userID, addressID)
		if txErr != nil {
			return txErr
		}
		if input.IsDefault && !existing.IsDefault {
			if txErr := repo.ClearDefault(ctx, userID); txErr != nil {
				return txErr
			}
		}

		existing.Label = strings.TrimSpace(input.Label)
		existing.Street = strings.TrimSpace(input.Street)
		existing.Unit = input.Unit
		existing.City = strings.TrimSpace(input.City)
		existing.State = strings.TrimSpace(input.State)
		existing.PostalCode = strings.TrimSpace(input.PostalCode)
		existing.IsDefault = input.IsDefault

		if txErr := repo.Update(ctx, userID, existing); txErr != nil {
			return txErr
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	return s.repo.Delete(ctx, userID, addressID)
}

// SetDefault promotes one address as the user's default and demotes all
// others in the same transaction.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var promoted *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, txErr := repo.GetForUser(ctx, userID, addressID)
		if txErr != nil {
			return txErr
		}
		if txErr := repo.ClearDefault(ctx, userID); txErr != nil {
			return txErr
		}
		existing.IsDefault = true
		if txErr := repo.Update(ctx, userID, existing); txErr != nil {
			return txErr
		}
		promoted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}
