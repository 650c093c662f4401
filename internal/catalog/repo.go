package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
)

// Repository reads catalog items for rate snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByIDs(ctx context.Context, ids []int64) ([]models.CatalogItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByIDs(ctx context.Context, ids []int64) ([]models.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.CatalogItem
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
