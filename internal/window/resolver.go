package window

import (
	"fmt"
	"time"

	"github.com/nileshbarai/distrokhata-backend/pkg/config"
	"github.com/nileshbarai/distrokhata-backend/pkg/enums"
)

// Resolver maps wall-clock time to the named delivery windows. It is pure
// and stateless; callers pass "now" explicitly so behavior stays
// deterministic under test.
type Resolver struct {
	enabled  bool
	loc      *time.Location
	morning  span
	evening  span
	timezone string
}

// span is a half-open [start, end) range in minutes since midnight.
type span struct {
	start int
	end   int
}

func (s span) contains(minute int) bool {
	return minute >= s.start && minute < s.end
}

// NewResolver builds a resolver from validated window configuration.
func NewResolver(cfg config.OrderWindowConfig) (*Resolver, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading window timezone %q: %w", cfg.Timezone, err)
	}

	morning, err := parseSpan(cfg.MorningStart, cfg.MorningEnd)
	if err != nil {
		return nil, fmt.Errorf("morning window: %w", err)
	}
	evening, err := parseSpan(cfg.EveningStart, cfg.EveningEnd)
	if err != nil {
		return nil, fmt.Errorf("evening window: %w", err)
	}

	return &Resolver{
		enabled:  cfg.Enabled,
		loc:      loc,
		morning:  morning,
		evening:  evening,
		timezone: cfg.Timezone,
	}, nil
}

func parseSpan(start, end string) (span, error) {
	s, err := parseMinute(start)
	if err != nil {
		return span{}, err
	}
	e, err := parseMinute(end)
	if err != nil {
		return span{}, err
	}
	if s >= e {
		return span{}, fmt.Errorf("start %q must be before end %q", start, end)
	}
	return span{start: s, end: e}, nil
}

func parseMinute(boundary string) (int, error) {
	t, err := time.Parse("15:04", boundary)
	if err != nil {
		return 0, fmt.Errorf("invalid boundary %q: %w", boundary, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Enabled reports whether window gating is switched on. When disabled every
// submission creates a fresh order and no window is stamped.
func (r *Resolver) Enabled() bool {
	return r.enabled
}

// Location returns the timezone the windows are anchored to.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Current returns the window that contains now, or DeliveryWindowNone when
// now falls outside both configured ranges. Starts are inclusive, ends
// exclusive.
func (r *Resolver) Current(now time.Time) enums.DeliveryWindow {
	local := now.In(r.loc)
	minute := local.Hour()*60 + local.Minute()
	switch {
	case r.morning.contains(minute):
		return enums.DeliveryWindowMorning
	case r.evening.contains(minute):
		return enums.DeliveryWindowEvening
	default:
		return enums.DeliveryWindowNone
	}
}

// Target returns the window a new order should be stamped with: the
// opposite of the current one. Orders taken in the morning are delivered in
// the evening run and vice versa. Returns DeliveryWindowNone outside
// ordering hours.
func (r *Resolver) Target(now time.Time) enums.DeliveryWindow {
	return r.Current(now).Opposite()
}

// DayBounds returns the [start, end) of the calendar day containing now in
// the window timezone. Merge candidate lookups are scoped to this range.
func (r *Resolver) DayBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}
