package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
)

// Service resolves distributors for order and ledger operations.
type Service interface {
	GetDistributor(ctx context.Context, tx *gorm.DB, id int64, tenantID *int64) (*models.User, error)
}

type service struct {
	repo Repository
}

// NewService wires a users service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetDistributor(ctx context.Context, tx *gorm.DB, id int64, tenantID *int64) (*models.User, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	user, err := s.repo.WithTx(tx).FindDistributor(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found").
				WithDetails(map[string]any{"distributor_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor")
	}
	return user, nil
}
