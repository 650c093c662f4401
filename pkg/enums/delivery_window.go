package enums

import "fmt"

// DeliveryWindow buckets same-day orders into the morning or evening run.
// None means the clock is outside both configured windows.
type DeliveryWindow string

const (
	DeliveryWindowMorning DeliveryWindow = "morning"
	DeliveryWindowEvening DeliveryWindow = "evening"
	DeliveryWindowNone    DeliveryWindow = "none"
)

// String implements fmt.Stringer.
func (w DeliveryWindow) String() string {
	return string(w)
}

// IsValid reports whether the value is a known DeliveryWindow.
func (w DeliveryWindow) IsValid() bool {
	switch w {
	case DeliveryWindowMorning, DeliveryWindowEvening, DeliveryWindowNone:
		return true
	}
	return false
}

// Opposite returns the window new orders should target: orders taken during
// the morning window are delivered in the evening and vice versa.
func (w DeliveryWindow) Opposite() DeliveryWindow {
	switch w {
	case DeliveryWindowMorning:
		return DeliveryWindowEvening
	case DeliveryWindowEvening:
		return DeliveryWindowMorning
	}
	return DeliveryWindowNone
}

// ParseDeliveryWindow converts raw input into a DeliveryWindow.
func ParseDeliveryWindow(value string) (DeliveryWindow, error) {
	switch DeliveryWindow(value) {
	case DeliveryWindowMorning:
		return DeliveryWindowMorning, nil
	case DeliveryWindowEvening:
		return DeliveryWindowEvening, nil
	case DeliveryWindowNone:
		return DeliveryWindowNone, nil
	}
	return "", fmt.Errorf("invalid delivery window %q", value)
}
