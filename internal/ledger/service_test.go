package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nileshbarai/distrokhata-backend/internal/users"
	"github.com/nileshbarai/distrokhata-backend/pkg/db/models"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:ledgertest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.User{}, &models.LedgerEntry{}))

	require.NoError(t, db.Exec("DELETE FROM ledger_entries").Error)
	require.NoError(t, db.Exec("DELETE FROM users").Error)
	require.NoError(t, db.Exec("DELETE FROM tenants").Error)
	return db
}

func mustCreateDistributor(t *testing.T, db *gorm.DB, tenantID int64, name string) *models.User {
	t.Helper()
	business := name + " Traders"
	user := &models.User{
		TenantID:     &tenantID,
		Role:         enums.UserRoleDistributor,
		FirstName:    name,
		PhoneNo:      "9000000001",
		BusinessName: &business,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	userSvc, err := users.NewService(users.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, userSvc, nil, nil)
	require.NoError(t, err)
	return svc
}

func entryDate(day int) time.Time {
	return time.Date(2026, time.September, day, 0, 0, 0, 0, time.UTC)
}

func TestDebitCreditRunningBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Asha")

	first, err := svc.Debit(ctx, nil, AppendInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(500),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "Order ORD-20260901-000001 - Sale",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)
	require.True(t, first.RunningBalance.Equal(decimal.NewFromInt(500)))

	second, err := svc.Credit(ctx, nil, AppendInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(200),
		ReferenceType: enums.LedgerReferencePayment,
		Narration:     "Payment received for Order ORD-20260901-000001",
		EntryDate:     entryDate(2),
	})
	require.NoError(t, err)
	require.True(t, second.RunningBalance.Equal(decimal.NewFromInt(300)))

	balance, err := svc.Balance(ctx, 1, dist.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(300)))
}

func TestBalanceEmptyStreamIsZero(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)

	balance, err := svc.Balance(context.Background(), 1, 12345)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestCreditCanDriveBalanceNegative(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Binod")

	entry, err := svc.Credit(ctx, nil, AppendInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(150),
		ReferenceType: enums.LedgerReferencePayment,
		Narration:     "advance payment",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)
	require.True(t, entry.RunningBalance.Equal(decimal.NewFromInt(-150)))
}

func TestAppendValidation(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AppendInput
	}{
		{
			name: "zero amount",
			input: AppendInput{
				TenantID: 1, DistributorID: 1,
				Amount:        decimal.Zero,
				ReferenceType: enums.LedgerReferenceOrder,
				Narration:     "x", EntryDate: entryDate(1),
			},
		},
		{
			name: "negative amount",
			input: AppendInput{
				TenantID: 1, DistributorID: 1,
				Amount:        decimal.NewFromInt(-10),
				ReferenceType: enums.LedgerReferenceOrder,
				Narration:     "x", EntryDate: entryDate(1),
			},
		},
		{
			name: "missing narration",
			input: AppendInput{
				TenantID: 1, DistributorID: 1,
				Amount:        decimal.NewFromInt(10),
				ReferenceType: enums.LedgerReferenceOrder,
				EntryDate:     entryDate(1),
			},
		},
		{
			name: "bad reference type",
			input: AppendInput{
				TenantID: 1, DistributorID: 1,
				Amount:        decimal.NewFromInt(10),
				ReferenceType: enums.LedgerReferenceType("bogus"),
				Narration:     "x", EntryDate: entryDate(1),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Debit(ctx, nil, tc.input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestStatementTotalsAndBalances(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Chetan")

	// day 1: opening activity before the statement range
	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(1000),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "Order ORD-20260901-000002 - Sale",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)

	// days 5 and 6: in range
	_, err = svc.Credit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(400),
		ReferenceType: enums.LedgerReferencePayment,
		Narration:     "Payment received for Order ORD-20260901-000002",
		EntryDate:     entryDate(5),
	})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(250),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "Order ORD-20260905-000003 - Sale",
		EntryDate:     entryDate(6),
	})
	require.NoError(t, err)

	from := entryDate(5)
	to := entryDate(10)
	statement, err := svc.Statement(ctx, StatementInput{
		TenantID:      1,
		DistributorID: dist.ID,
		From:          &from,
		To:            &to,
	})
	require.NoError(t, err)

	require.Len(t, statement.Entries, 2)
	// opening picks up the last entry dated on or before the range start,
	// so the day-5 credit already counts toward it
	require.True(t, statement.OpeningBalance.Equal(decimal.NewFromInt(600)))
	require.True(t, statement.TotalDebit.Equal(decimal.NewFromInt(250)))
	require.True(t, statement.TotalCredit.Equal(decimal.NewFromInt(400)))
	require.True(t, statement.ClosingBalance.Equal(decimal.NewFromInt(850)))
}

func TestStatementEmptyRangeClosesAtOpening(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Deepa")

	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(700),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "Order ORD-20260901-000004 - Sale",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)

	from := entryDate(10)
	to := entryDate(15)
	statement, err := svc.Statement(ctx, StatementInput{
		TenantID: 1, DistributorID: dist.ID, From: &from, To: &to,
	})
	require.NoError(t, err)

	require.Empty(t, statement.Entries)
	require.True(t, statement.OpeningBalance.Equal(decimal.NewFromInt(700)))
	require.True(t, statement.ClosingBalance.Equal(decimal.NewFromInt(700)))
	require.True(t, statement.TotalDebit.IsZero())
	require.True(t, statement.TotalCredit.IsZero())
}

func TestStatementRejectsInvertedRange(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)

	from := entryDate(10)
	to := entryDate(5)
	_, err := svc.Statement(context.Background(), StatementInput{
		TenantID: 1, DistributorID: 1, From: &from, To: &to,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOutstandingReportSortsAndCounts(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	low := mustCreateDistributor(t, db, 1, "Low")
	high := mustCreateDistributor(t, db, 1, "High")
	settled := mustCreateDistributor(t, db, 1, "Settled")

	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: low.ID,
		Amount: decimal.NewFromInt(100), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: entryDate(1),
	})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: high.ID,
		Amount: decimal.NewFromInt(900), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: entryDate(1),
	})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: settled.ID,
		Amount: decimal.NewFromInt(300), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: entryDate(1),
	})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: settled.ID,
		Amount: decimal.NewFromInt(300), ReferenceType: enums.LedgerReferencePayment,
		Narration: "payment", EntryDate: entryDate(2),
	})
	require.NoError(t, err)

	report, err := svc.Outstanding(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, 3, report.DistributorCount)
	require.Equal(t, 2, report.WithBalanceCount)
	require.True(t, report.TotalOutstanding.Equal(decimal.NewFromInt(1000)))
	require.Equal(t, high.ID, report.Distributors[0].DistributorID)
	require.True(t, report.Distributors[0].Balance.Equal(decimal.NewFromInt(900)))
}

func TestRecordPaymentAndSummary(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Esha")
	// todays collection keys on when entries were recorded, so the test
	// clock has to be the wall clock
	now := time.Now().UTC()

	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount: decimal.NewFromInt(800), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: now,
	})
	require.NoError(t, err)

	entry, err := svc.RecordPayment(ctx, ManualEntryInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(300),
		Narration:     "cash collected on route",
		EntryDate:     now,
	})
	require.NoError(t, err)
	require.Equal(t, enums.LedgerEntryTypeCredit, entry.EntryType)
	require.Equal(t, enums.LedgerReferencePayment, entry.ReferenceType)
	require.True(t, entry.RunningBalance.Equal(decimal.NewFromInt(500)))

	summary, err := svc.Summary(ctx, 1, now)
	require.NoError(t, err)
	require.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(500)))
	require.True(t, summary.TodaysCollection.Equal(decimal.NewFromInt(300)))
	require.Equal(t, 1, summary.DistributorCount)
}

func TestSummaryCountsBackdatedPaymentsRecordedToday(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Heena")
	now := time.Now().UTC()

	// payment dated two days back but keyed in today
	_, err := svc.RecordPayment(ctx, ManualEntryInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(450),
		Narration:     "late-entered cash collection",
		EntryDate:     now.Add(-48 * time.Hour),
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, 1, now)
	require.NoError(t, err)
	require.True(t, summary.TodaysCollection.Equal(decimal.NewFromInt(450)),
		"got %s", summary.TodaysCollection)
}

func TestRecordPaymentUnknownDistributor(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.RecordPayment(context.Background(), ManualEntryInput{
		TenantID:      1,
		DistributorID: 9999,
		Amount:        decimal.NewFromInt(50),
		Narration:     "ghost payment",
		EntryDate:     entryDate(1),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestRecordAdjustmentDirections(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Farhan")

	debit, err := svc.RecordAdjustment(ctx, ManualEntryInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(120),
		EntryType:     enums.LedgerEntryTypeDebit,
		Narration:     "damaged stock chargeback",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)
	require.Equal(t, enums.LedgerReferenceAdjustment, debit.ReferenceType)
	require.True(t, debit.RunningBalance.Equal(decimal.NewFromInt(120)))

	credit, err := svc.RecordAdjustment(ctx, ManualEntryInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(20),
		EntryType:     enums.LedgerEntryTypeCredit,
		Narration:     "goodwill waiver",
		EntryDate:     entryDate(2),
	})
	require.NoError(t, err)
	require.True(t, credit.RunningBalance.Equal(decimal.NewFromInt(100)))

	_, err = svc.RecordAdjustment(ctx, ManualEntryInput{
		TenantID:      1,
		DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(10),
		EntryType:     enums.LedgerEntryType("sideways"),
		Narration:     "bad direction",
		EntryDate:     entryDate(2),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEntriesAreTenantScoped(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	dist := mustCreateDistributor(t, db, 1, "Gita")

	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount: decimal.NewFromInt(100), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: entryDate(1),
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, 2, dist.ID)
	require.NoError(t, err)
	require.True(t, balance.IsZero(), "tenant 2 must not see tenant 1 entries")
}

func TestOutstandingIncludesZeroHistoryDistributors(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	billed := mustCreateDistributor(t, db, 1, "Billed")
	fresh := mustCreateDistributor(t, db, 1, "Fresh")

	_, err := svc.Debit(ctx, nil, AppendInput{
		TenantID: 1, DistributorID: billed.ID,
		Amount: decimal.NewFromInt(250), ReferenceType: enums.LedgerReferenceOrder,
		Narration: "sale", EntryDate: entryDate(1),
	})
	require.NoError(t, err)

	report, err := svc.Outstanding(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, 2, report.DistributorCount)
	require.Equal(t, 1, report.WithBalanceCount)
	require.True(t, report.TotalOutstanding.Equal(decimal.NewFromInt(250)))

	var freshRow *DistributorBalance
	for i := range report.Distributors {
		if report.Distributors[i].DistributorID == fresh.ID {
			freshRow = &report.Distributors[i]
		}
	}
	require.NotNil(t, freshRow, "distributor without entries missing from the report")
	require.True(t, freshRow.Balance.IsZero())
	require.Nil(t, freshRow.LastEntryAt)
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// sequencedRepo records the order of repository calls made while posting.
type sequencedRepo struct {
	calls   []string
	last    *models.LedgerEntry
	created *models.LedgerEntry
}

func (f *sequencedRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *sequencedRepo) LockStream(ctx context.Context, tenantID, distributorID int64) error {
	f.calls = append(f.calls, "lock")
	return nil
}

func (f *sequencedRepo) LastEntry(ctx context.Context, tenantID, distributorID int64) (*models.LedgerEntry, error) {
	f.calls = append(f.calls, "read")
	return f.last, nil
}

func (f *sequencedRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	f.calls = append(f.calls, "append")
	f.created = entry
	return nil
}

func (f *sequencedRepo) ListRange(ctx context.Context, tenantID, distributorID int64, from, to *time.Time) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *sequencedRepo) LastEntryOnOrBefore(ctx context.Context, tenantID, distributorID int64, cutoff time.Time) (*models.LedgerEntry, error) {
	return nil, nil
}

func (f *sequencedRepo) DistributorBalances(ctx context.Context, tenantID int64) ([]DistributorBalance, error) {
	return nil, nil
}

func (f *sequencedRepo) CreditTotalOnDate(ctx context.Context, tenantID int64, refType enums.LedgerReferenceType, dayStart time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func TestAppendLocksStreamBeforeReadingBalance(t *testing.T) {
	repo := &sequencedRepo{}
	svc := &service{repo: repo, tx: passthroughTxRunner{}, loc: time.UTC}

	entry, err := svc.Debit(context.Background(), nil, AppendInput{
		TenantID: 1, DistributorID: 7,
		Amount:        decimal.NewFromInt(100),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "sale",
		EntryDate:     entryDate(1),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"lock", "read", "append"}, repo.calls,
		"the stream lock must be taken before the balance read")
	require.True(t, entry.RunningBalance.Equal(decimal.NewFromInt(100)))
}

func TestEntryDateFollowsBusinessTimezone(t *testing.T) {
	db := setupLedgerTestDB(t)
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	userSvc, err := users.NewService(users.NewRepository(db))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, userSvc, nil, ist)
	require.NoError(t, err)

	dist := mustCreateDistributor(t, db, 1, "Indu")

	// 23:30 UTC on the 4th is already the morning of the 5th in IST
	entry, err := svc.Debit(context.Background(), nil, AppendInput{
		TenantID: 1, DistributorID: dist.ID,
		Amount:        decimal.NewFromInt(60),
		ReferenceType: enums.LedgerReferenceOrder,
		Narration:     "sale",
		EntryDate:     time.Date(2026, time.September, 4, 23, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, entry.EntryDate.Equal(time.Date(2026, time.September, 5, 0, 0, 0, 0, ist)),
		"got entry date %s", entry.EntryDate)
}
