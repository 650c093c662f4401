package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
)

// PriceLookup resolves catalog items so order writes can snapshot current
// rates. Rates are read at order creation or merge time only; existing order
// lines keep the rate they were written with.
type PriceLookup interface {
	Rates(ctx context.Context, tx *gorm.DB, itemIDs []int64) (map[int64]models.CatalogItem, error)
}

type priceLookup struct {
	repo Repository
}

// NewPriceLookup wires the lookup with the catalog repository.
func NewPriceLookup(repo Repository) (PriceLookup, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &priceLookup{repo: repo}, nil
}

func (p *priceLookup) Rates(ctx context.Context, tx *gorm.DB, itemIDs []int64) (map[int64]models.CatalogItem, error) {
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	unique := make([]int64, 0, len(itemIDs))
	seen := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	items, err := p.repo.WithTx(tx).FindActiveByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog items")
	}

	byID := make(map[int64]models.CatalogItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var missing []int64
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog items not found").
			WithDetails(map[string]any{"item_ids": missing})
	}
	return byID, nil
}
