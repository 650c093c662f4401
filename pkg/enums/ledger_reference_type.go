package enums

import "fmt"

// LedgerReferenceType records which business event produced a ledger entry.
type LedgerReferenceType string

const (
	LedgerReferenceOrder      LedgerReferenceType = "order"
	LedgerReferencePayment    LedgerReferenceType = "payment"
	LedgerReferenceAdjustment LedgerReferenceType = "adjustment"
	LedgerReferenceOpening    LedgerReferenceType = "opening"
)

var validLedgerReferenceTypes = []LedgerReferenceType{
	LedgerReferenceOrder,
	LedgerReferencePayment,
	LedgerReferenceAdjustment,
	LedgerReferenceOpening,
}

// String implements fmt.Stringer.
func (t LedgerReferenceType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LedgerReferenceType.
func (t LedgerReferenceType) IsValid() bool {
	for _, candidate := range validLedgerReferenceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerReferenceType converts raw input into a LedgerReferenceType.
func ParseLedgerReferenceType(value string) (LedgerReferenceType, error) {
	for _, candidate := range validLedgerReferenceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reference type %q", value)
}
