package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/internal/users"
	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
	"github.com/nileshbarai/distrokhata-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AppendInput carries the data for one ledger posting. Amount must be
// strictly positive; direction lives in the entry type chosen by the caller.
type AppendInput struct {
	TenantID      int64
	DistributorID int64
	Amount        decimal.Decimal
	ReferenceType enums.LedgerReferenceType
	ReferenceID   *int64
	Narration     string
	EntryDate     time.Time
	ActorID       *int64
}

// ManualEntryInput is a payment or adjustment recorded directly by an admin,
// outside the order transition bridge.
type ManualEntryInput struct {
	TenantID      int64
	DistributorID int64
	Amount        decimal.Decimal
	EntryType     enums.LedgerEntryType
	Narration     string
	EntryDate     time.Time
	ActorID       *int64
}

// StatementInput selects a distributor's entries for an optional date range.
type StatementInput struct {
	TenantID      int64
	DistributorID int64
	From          *time.Time
	To            *time.Time
}

// Statement is the reconciliation view for one distributor.
type Statement struct {
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	Entries        []models.LedgerEntry `json:"entries"`
	TotalDebit     decimal.Decimal      `json:"total_debit"`
	TotalCredit    decimal.Decimal      `json:"total_credit"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
}

// OutstandingReport lists every distributor's latest balance.
type OutstandingReport struct {
	Distributors     []DistributorBalance `json:"distributors"`
	TotalOutstanding decimal.Decimal      `json:"total_outstanding"`
	DistributorCount int                  `json:"distributor_count"`
	WithBalanceCount int                  `json:"with_balance_count"`
}

// Summary is the dashboard snapshot: outstanding totals plus the credits
// collected today.
type Summary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	DistributorCount int             `json:"distributor_count"`
	WithBalanceCount int             `json:"with_balance_count"`
	TodaysCollection decimal.Decimal `json:"todays_collection"`
}

// Service is the ledger engine: append-only debit/credit postings with a
// serialized running balance, plus the read surfaces built on them.
type Service interface {
	Debit(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error)
	Balance(ctx context.Context, tenantID, distributorID int64) (decimal.Decimal, error)
	Statement(ctx context.Context, input StatementInput) (*Statement, error)
	Outstanding(ctx context.Context, tenantID int64) (*OutstandingReport, error)
	Summary(ctx context.Context, tenantID int64, now time.Time) (*Summary, error)
	RecordPayment(ctx context.Context, input ManualEntryInput) (*models.LedgerEntry, error)
	RecordAdjustment(ctx context.Context, input ManualEntryInput) (*models.LedgerEntry, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	users   users.Service
	metrics *metrics.DomainMetrics
	loc     *time.Location
}

// NewService wires the ledger engine with its repository and transaction
// runner. Entry dates are normalized to calendar days in loc, the business
// timezone; nil defaults to UTC. Metrics may be nil.
func NewService(repo Repository, tx txRunner, userSvc users.Service, domainMetrics *metrics.DomainMetrics, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if userSvc == nil {
		return nil, fmt.Errorf("users service required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:    repo,
		tx:      tx,
		users:   userSvc,
		metrics: domainMetrics,
		loc:     loc,
	}, nil
}

// Debit increases what the distributor owes. When tx is nil the posting runs
// in its own transaction; otherwise it joins the caller's.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error) {
	return s.append(ctx, tx, enums.LedgerEntryTypeDebit, input)
}

// Credit decreases what the distributor owes.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerEntry, error) {
	return s.append(ctx, tx, enums.LedgerEntryTypeCredit, input)
}

func (s *service) append(ctx context.Context, tx *gorm.DB, entryType enums.LedgerEntryType, input AppendInput) (*models.LedgerEntry, error) {
	if err := validateAppend(input); err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	post := func(tx *gorm.DB) error {
		created, err := s.postEntry(ctx, tx, entryType, input)
		if err != nil {
			return err
		}
		entry = created
		return nil
	}

	if tx != nil {
		if err := post(tx); err != nil {
			return nil, err
		}
	} else {
		if err := s.tx.WithTx(ctx, post); err != nil {
			return nil, err
		}
	}

	s.metrics.IncLedgerEntry(entryType.String())
	return entry, nil
}

// postEntry is the correctness-critical region: lock the distributor's
// stream, read the latest entry, compute the new running balance, append.
// It must run inside a transaction; the lock is held until that transaction
// ends.
func (s *service) postEntry(ctx context.Context, tx *gorm.DB, entryType enums.LedgerEntryType, input AppendInput) (*models.LedgerEntry, error) {
	repo := s.repo.WithTx(tx)

	if err := repo.LockStream(ctx, input.TenantID, input.DistributorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ledger stream")
	}
	last, err := repo.LastEntry(ctx, input.TenantID, input.DistributorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest ledger entry")
	}

	prior := decimal.Zero
	if last != nil {
		prior = last.RunningBalance
	}

	balance := prior
	if entryType == enums.LedgerEntryTypeDebit {
		balance = prior.Add(input.Amount)
	} else {
		balance = prior.Sub(input.Amount)
	}

	entry := &models.LedgerEntry{
		TenantID:       input.TenantID,
		DistributorID:  input.DistributorID,
		EntryType:      entryType,
		Amount:         input.Amount,
		RunningBalance: balance,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Narration:      input.Narration,
		EntryDate:      s.dateOnly(input.EntryDate),
		CreatedBy:      input.ActorID,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return entry, nil
}

func validateAppend(input AppendInput) error {
	if input.TenantID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.DistributorID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.ReferenceType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid reference type %q", input.ReferenceType)
	}
	if input.Narration == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "narration required")
	}
	if input.EntryDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "entry date required")
	}
	return nil
}

// Balance returns the latest running balance, zero for an empty stream.
func (s *service) Balance(ctx context.Context, tenantID, distributorID int64) (decimal.Decimal, error) {
	if tenantID <= 0 || distributorID <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "tenant and distributor ids required")
	}
	last, err := s.repo.LastEntry(ctx, tenantID, distributorID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest ledger entry")
	}
	if last == nil {
		return decimal.Zero, nil
	}
	return last.RunningBalance, nil
}

func (s *service) Statement(ctx context.Context, input StatementInput) (*Statement, error) {
	if input.TenantID <= 0 || input.DistributorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant and distributor ids required")
	}
	if input.From != nil && input.To != nil && input.From.After(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "statement range start is after end")
	}

	var from, to *time.Time
	if input.From != nil {
		d := s.dateOnly(*input.From)
		from = &d
	}
	if input.To != nil {
		d := s.dateOnly(*input.To)
		to = &d
	}

	opening := decimal.Zero
	if from != nil {
		last, err := s.repo.LastEntryOnOrBefore(ctx, input.TenantID, input.DistributorID, *from)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load opening balance")
		}
		if last != nil {
			opening = last.RunningBalance
		}
	}

	entries, err := s.repo.ListRange(ctx, input.TenantID, input.DistributorID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load statement entries")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, entry := range entries {
		if entry.EntryType == enums.LedgerEntryTypeDebit {
			totalDebit = totalDebit.Add(entry.Amount)
		} else {
			totalCredit = totalCredit.Add(entry.Amount)
		}
	}

	closing := opening
	if len(entries) > 0 {
		closing = entries[len(entries)-1].RunningBalance
	}

	return &Statement{
		OpeningBalance: opening,
		Entries:        entries,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		ClosingBalance: closing,
	}, nil
}

func (s *service) Outstanding(ctx context.Context, tenantID int64) (*OutstandingReport, error) {
	if tenantID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	balances, err := s.repo.DistributorBalances(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor balances")
	}

	total := decimal.Zero
	withBalance := 0
	for _, row := range balances {
		total = total.Add(row.Balance)
		if row.Balance.IsPositive() {
			withBalance++
		}
	}

	return &OutstandingReport{
		Distributors:     balances,
		TotalOutstanding: total,
		DistributorCount: len(balances),
		WithBalanceCount: withBalance,
	}, nil
}

func (s *service) Summary(ctx context.Context, tenantID int64, now time.Time) (*Summary, error) {
	report, err := s.Outstanding(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	collection, err := s.repo.CreditTotalOnDate(ctx, tenantID, enums.LedgerReferencePayment, s.dateOnly(now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load todays collection")
	}
	return &Summary{
		TotalOutstanding: report.TotalOutstanding,
		DistributorCount: report.DistributorCount,
		WithBalanceCount: report.WithBalanceCount,
		TodaysCollection: collection,
	}, nil
}

// RecordPayment posts an admin-entered payment as a credit against the
// distributor's balance.
func (s *service) RecordPayment(ctx context.Context, input ManualEntryInput) (*models.LedgerEntry, error) {
	if input.EntryType != "" && input.EntryType != enums.LedgerEntryTypeCredit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments are credit entries")
	}
	input.EntryType = enums.LedgerEntryTypeCredit
	return s.manualEntry(ctx, input, enums.LedgerReferencePayment)
}

// RecordAdjustment posts a caller-directed debit or credit correction.
func (s *service) RecordAdjustment(ctx context.Context, input ManualEntryInput) (*models.LedgerEntry, error) {
	if !input.EntryType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid entry type %q", input.EntryType)
	}
	return s.manualEntry(ctx, input, enums.LedgerReferenceAdjustment)
}

func (s *service) manualEntry(ctx context.Context, input ManualEntryInput, refType enums.LedgerReferenceType) (*models.LedgerEntry, error) {
	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	appendInput := AppendInput{
		TenantID:      input.TenantID,
		DistributorID: input.DistributorID,
		Amount:        input.Amount,
		ReferenceType: refType,
		Narration:     input.Narration,
		EntryDate:     entryDate,
		ActorID:       input.ActorID,
	}
	if err := validateAppend(appendInput); err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.users.GetDistributor(ctx, tx, input.DistributorID, &input.TenantID); err != nil {
			return err
		}
		created, err := s.postEntry(ctx, tx, input.EntryType, appendInput)
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLedgerEntry(input.EntryType.String())
	return entry, nil
}

// dateOnly truncates to midnight of the calendar day containing t in the
// business timezone.
func (s *service) dateOnly(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
