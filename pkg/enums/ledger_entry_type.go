package enums

import "fmt"

// LedgerEntryType is the direction of a ledger entry. Debits increase the
// amount a distributor owes, credits decrease it.
type LedgerEntryType string

const (
	LedgerEntryTypeDebit  LedgerEntryType = "debit"
	LedgerEntryTypeCredit LedgerEntryType = "credit"
)

// String implements fmt.Stringer.
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LedgerEntryType.
func (t LedgerEntryType) IsValid() bool {
	return t == LedgerEntryTypeDebit || t == LedgerEntryTypeCredit
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	switch LedgerEntryType(value) {
	case LedgerEntryTypeDebit:
		return LedgerEntryTypeDebit, nil
	case LedgerEntryTypeCredit:
		return LedgerEntryTypeCredit, nil
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
