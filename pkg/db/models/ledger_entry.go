package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// LedgerEntry is one immutable row in a distributor's ledger stream. Entries
// are never updated or deleted; corrections are new offsetting entries.
// RunningBalance is the distributor's outstanding amount after this entry.
type LedgerEntry struct {
	ID             int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID       int64                     `gorm:"column:tenant_id;not null;index:idx_ledger_tenant_distributor"`
	DistributorID  int64                     `gorm:"column:distributor_id;not null;index:idx_ledger_tenant_distributor"`
	EntryType      enums.LedgerEntryType     `gorm:"column:entry_type;size:10;not null"`
	Amount         decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	RunningBalance decimal.Decimal           `gorm:"column:running_balance;type:numeric(12,2);not null"`
	ReferenceType  enums.LedgerReferenceType `gorm:"column:reference_type;size:20;not null;index:idx_ledger_reference"`
	ReferenceID    *int64                    `gorm:"column:reference_id;index:idx_ledger_reference"`
	Narration      string                    `gorm:"column:narration;size:500;not null"`
	EntryDate      time.Time                 `gorm:"column:entry_date;type:date;not null;index"`
	CreatedBy      *int64                    `gorm:"column:created_by"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	Distributor    *User                     `gorm:"foreignKey:DistributorID"`
}

// TableName overrides the default GORM pluralization.
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
