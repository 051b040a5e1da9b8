// Package calendar builds typed availability snapshots from raw Availability
// Service responses. All validation of upstream data happens here; the engine
// packages only ever see parsed records.
package calendar

import (
	"fmt"
	"time"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// BookingStatus classifies a calendar date across all rooms.
type BookingStatus string

const (
	StatusAvailable       BookingStatus = "available"
	StatusPartiallyBooked BookingStatus = "partiallyBooked"
	StatusFullyBooked     BookingStatus = "fullyBooked"
)

// DateRestriction carries the per-date booking rules from the availability
// calendar.
type DateRestriction struct {
	CanCheckIn  bool
	CanCheckOut bool
	CanStay     bool
	MinimumStay int // 0 means unset
	MaximumStay int // 0 means unset
	Reasons     []string
	RateIDs     []string // empty means every rate applies
}

// PrimaryReason returns the first restriction reason, or fallback when the
// calendar supplied none.
func (r DateRestriction) PrimaryReason(fallback string) string {
	if len(r.Reasons) > 0 {
		return r.Reasons[0]
	}
	return fallback
}

// permissive is the restriction assumed for dates the calendar says nothing
// about.
var permissive = DateRestriction{CanCheckIn: true, CanCheckOut: true, CanStay: true}

// GeneralSettings are the property-wide settings shipped with a snapshot.
type GeneralSettings struct {
	MinStayDays int
	TaxPercent  float64
	// TaxPercentSet distinguishes an explicit zero tax rate from settings
	// that omit the rate entirely.
	TaxPercentSet bool
	// CutoffMinutes is the same-day booking closing time as minutes after
	// local midnight. Negative means no cutoff.
	CutoffMinutes int
}

// CutoffPassed reports whether the local time of day in now is at or past the
// same-day cutoff. Booking is allowed strictly before the cutoff.
func (g GeneralSettings) CutoffPassed(now time.Time) bool {
	if g.CutoffMinutes < 0 {
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= g.CutoffMinutes
}

// Snapshot is an immutable availability window. One snapshot backs every
// engine call until the caller fetches a fresh one.
type Snapshot struct {
	Start booking.Date
	End   booking.Date

	Status       map[booking.Date]BookingStatus
	Restrictions map[booking.Date]DateRestriction

	Rooms            []booking.Room
	UnavailableRooms []string
	Rates            map[string]booking.RatePolicy

	overrides map[overrideKey]float64

	Settings GeneralSettings
}

type overrideKey struct {
	rateID string
	roomID string
	date   booking.Date
}

// StatusOf returns the booking status of a date, defaulting to available.
func (s *Snapshot) StatusOf(d booking.Date) BookingStatus {
	if st, ok := s.Status[d]; ok {
		return st
	}
	return StatusAvailable
}

// RestrictionOf returns the restriction for a date, defaulting to fully
// permissive.
func (s *Snapshot) RestrictionOf(d booking.Date) DateRestriction {
	if r, ok := s.Restrictions[d]; ok {
		return r
	}
	return permissive
}

// Room returns the room with the given id.
func (s *Snapshot) Room(id string) (*booking.Room, bool) {
	for i := range s.Rooms {
		if s.Rooms[i].ID == id {
			return &s.Rooms[i], true
		}
	}
	return nil, false
}

// Rate returns the active rate policy with the given id.
func (s *Snapshot) Rate(id string) (*booking.RatePolicy, bool) {
	rate, ok := s.Rates[id]
	if !ok || !rate.Active {
		return nil, false
	}
	return &rate, true
}

// OverrideFor returns the active per-date price for a rate+room+date, if any.
func (s *Snapshot) OverrideFor(rateID, roomID string, d booking.Date) (float64, bool) {
	price, ok := s.overrides[overrideKey{rateID: rateID, roomID: roomID, date: d}]
	return price, ok
}

// Empty returns a snapshot with no rooms and no restrictions for the given
// window. Callers hand it to the engines when the availability service could
// not be reached.
func Empty(start, end booking.Date) *Snapshot {
	return &Snapshot{
		Start:        start,
		End:          end,
		Status:       map[booking.Date]BookingStatus{},
		Restrictions: map[booking.Date]DateRestriction{},
		Rates:        map[string]booking.RatePolicy{},
		overrides:    map[overrideKey]float64{},
		Settings:     GeneralSettings{CutoffMinutes: -1},
	}
}

// parseCutoff converts a HH:MM wall-clock string to minutes after midnight.
// An empty string disables the cutoff.
func parseCutoff(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid daily booking start time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
