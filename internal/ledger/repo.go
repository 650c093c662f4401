package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// DistributorBalance is one row of the outstanding report: a distributor and
// the running balance of their latest ledger entry.
type DistributorBalance struct {
	DistributorID int64           `json:"distributor_id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	BusinessName  *string         `json:"business_name,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	LastEntryAt   *time.Time      `json:"last_entry_at,omitempty"`
}

// Repository manages persistence for the append-only ledger stream.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockStream(ctx context.Context, tenantID, distributorID int64) error
	LastEntry(ctx context.Context, tenantID, distributorID int64) (*models.LedgerEntry, error)
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListRange(ctx context.Context, tenantID, distributorID int64, from, to *time.Time) ([]models.LedgerEntry, error)
	LastEntryOnOrBefore(ctx context.Context, tenantID, distributorID int64, cutoff time.Time) (*models.LedgerEntry, error)
	DistributorBalances(ctx context.Context, tenantID int64) ([]DistributorBalance, error)
	CreditTotalOnDate(ctx context.Context, tenantID int64, refType enums.LedgerReferenceType, dayStart time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockStream serializes writers on one distributor's stream for the
// duration of the surrounding transaction. A row lock on the last entry
// cannot do this: there is no row to lock while the stream is empty, and
// under READ COMMITTED a blocked waiter keeps the row it read before
// blocking. The advisory lock is Postgres-only; the sqlite test dialect
// serializes writers on its own.
func (r *repository) LockStream(ctx context.Context, tenantID, distributorID int64) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := tenantID<<32 ^ distributorID
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error
}

// LastEntry returns the distributor's most recent ledger entry, or nil when
// the stream is empty. Writers must hold the stream lock before reading.
func (r *repository) LastEntry(ctx context.Context, tenantID, distributorID int64) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND distributor_id = ?", tenantID, distributorID).
		Order("id DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListRange(ctx context.Context, tenantID, distributorID int64, from, to *time.Time) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND distributor_id = ?", tenantID, distributorID)
	if from != nil {
		query = query.Where("entry_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("entry_date <= ?", *to)
	}

	var entries []models.LedgerEntry
	if err := query.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) LastEntryOnOrBefore(ctx context.Context, tenantID, distributorID int64, cutoff time.Time) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND distributor_id = ? AND entry_date <= ?", tenantID, distributorID, cutoff).
		Order("id DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// DistributorBalances returns every distributor of the tenant with the
// running balance of their latest ledger entry, sorted highest balance
// first. Distributors with no entries yet report a zero balance.
func (r *repository) DistributorBalances(ctx context.Context, tenantID int64) ([]DistributorBalance, error) {
	var balances []DistributorBalance
	err := r.db.WithContext(ctx).
		Table("users AS u").
		Select(`u.id AS distributor_id,
			u.first_name,
			u.last_name,
			u.business_name,
			COALESCE(le.running_balance, 0) AS balance,
			le.created_at AS last_entry_at`).
		Joins(`LEFT JOIN (
			SELECT l.distributor_id, l.running_balance, l.created_at
			FROM ledger_entries l
			JOIN (
				SELECT distributor_id, MAX(id) AS max_id
				FROM ledger_entries
				WHERE tenant_id = ?
				GROUP BY distributor_id
			) latest ON latest.max_id = l.id
		) le ON le.distributor_id = u.id`, tenantID).
		Where("u.role = ? AND u.tenant_id = ?", enums.UserRoleDistributor, tenantID).
		Order("balance DESC").
		Scan(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// CreditTotalOnDate sums credit entries of the given reference type recorded
// during the calendar day starting at dayStart. The filter is on created_at,
// not the business entry date, so a backdated payment recorded today still
// counts toward today's collection.
func (r *repository) CreditTotalOnDate(ctx context.Context, tenantID int64, refType enums.LedgerReferenceType, dayStart time.Time) (decimal.Decimal, error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND entry_type = ? AND reference_type = ? AND created_at >= ? AND created_at < ?",
			tenantID, enums.LedgerEntryTypeCredit, refType, dayStart, dayEnd).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
