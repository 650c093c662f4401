package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// Repository manages persistence for orders and their item sets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByIDs(ctx context.Context, tenantID *int64, ids []int64) ([]models.Order, error)
	FindPendingForMerge(ctx context.Context, tenantID *int64, distributorID int64, window enums.DeliveryWindow, dayStart, dayEnd time.Time, forUpdate bool) (*models.Order, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	ReplaceItems(ctx context.Context, orderID int64, items []models.OrderItem) error
	Save(ctx context.Context, order *models.Order) error
	List(ctx context.Context, tenantID *int64, filter ListFilter) ([]models.Order, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Item").
		Preload("Distributor").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDs loads the batch with items and distributor attached; transition
// notifications are built straight from these rows.
func (r *repository) FindByIDs(ctx context.Context, tenantID *int64, ids []int64) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Item").
		Preload("Distributor").
		Where("id IN ?", ids)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPendingForMerge returns the distributor's open order for the given
// window created today, or nil when none exists. With forUpdate the row is
// locked so a concurrent submission cannot merge into a stale item set; the
// lock clause is Postgres-only.
func (r *repository) FindPendingForMerge(ctx context.Context, tenantID *int64, distributorID int64, window enums.DeliveryWindow, dayStart, dayEnd time.Time, forUpdate bool) (*models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("distributor_id = ? AND status = ? AND delivery_window = ?",
			distributorID, enums.OrderStatusPending, window).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	if forUpdate && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order models.Order
	if err := query.Order("id DESC").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindPendingBefore returns pending orders created before the cutoff,
// across all tenants. The stale order sweeper feeds on this.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ReplaceItems swaps an order's full item set in one shot: delete all rows,
// insert the computed set. Callers must run this inside a transaction.
func (r *repository) ReplaceItems(ctx context.Context, orderID int64, items []models.OrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items", "Distributor").
		Save(order).Error
}

func (r *repository) List(ctx context.Context, tenantID *int64, filter ListFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Joins("JOIN users ON users.id = orders.distributor_id")
	if tenantID != nil {
		query = query.Where("orders.tenant_id = ?", *tenantID)
	}
	if filter.Status != nil {
		query = query.Where("orders.status = ?", *filter.Status)
	}
	if filter.DistributorID != nil {
		query = query.Where("orders.distributor_id = ?", *filter.DistributorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			`LOWER(orders.order_no) LIKE ?
			OR LOWER(users.first_name) LIKE ?
			OR LOWER(users.last_name) LIKE ?
			OR LOWER(COALESCE(users.business_name, '')) LIKE ?`,
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var orders []models.Order
	if err := query.
		Preload("Items").
		Preload("Distributor").
		Order("orders.created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
