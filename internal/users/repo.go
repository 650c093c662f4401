package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// Repository reads users for identity and distributor resolution.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindDistributor(ctx context.Context, id int64, tenantID *int64) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindDistributor loads an active distributor, scoped to the tenant when one
// is given. A nil tenant means a cross-tenant (master admin) lookup.
func (r *repository) FindDistributor(ctx context.Context, id int64, tenantID *int64) (*models.User, error) {
	query := r.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", id, enums.UserRoleDistributor, true)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	var user models.User
	if err := query.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
