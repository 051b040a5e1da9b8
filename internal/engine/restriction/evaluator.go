// Package restriction decides which calendar dates a guest may pick and
// whether a chosen arrival/departure pair is legal. All functions are pure
// over one snapshot; "now" is injected by the caller in the booking timezone.
package restriction

import (
	"fmt"
	"time"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

// Fixed reason strings used when the calendar supplies none of its own.
const (
	ReasonPastDate     = "date is in the past"
	ReasonFullyBooked  = "fully booked"
	ReasonNoCheckIn    = "check-in not available on this date"
	ReasonNoCheckOut   = "check-out not available on this date"
	ReasonNoStay       = "stay not available on this date"
	ReasonCutoffPassed = "same-day bookings are closed for today"
	ReasonBadOrder     = "departure must be after arrival"
)

// Classification is the result of classifying a single calendar date.
type Classification struct {
	Status     calendar.BookingStatus
	Selectable bool
	Reason     string // empty when selectable
}

// Evaluator applies the date restriction rules of one snapshot.
type Evaluator struct {
	snap  *calendar.Snapshot
	now   time.Time
	today booking.Date
}

// New builds an evaluator. now must already be expressed in the booking
// reference timezone; Today is derived from it.
func New(snap *calendar.Snapshot, now time.Time) *Evaluator {
	return &Evaluator{snap: snap, now: now, today: booking.DateOf(now)}
}

// EffectiveMinStay is the stricter of the global minimum and the arrival
// date's own minimum.
func (e *Evaluator) EffectiveMinStay(arrival booking.Date) int {
	minStay := e.snap.Settings.MinStayDays
	if r := e.snap.RestrictionOf(arrival); r.MinimumStay > minStay {
		minStay = r.MinimumStay
	}
	return minStay
}

// EffectiveMaxStay is the arrival date's maximum stay, when defined.
func (e *Evaluator) EffectiveMaxStay(arrival booking.Date) (int, bool) {
	r := e.snap.RestrictionOf(arrival)
	if r.MaximumStay > 0 {
		return r.MaximumStay, true
	}
	return 0, false
}

// ClassifyDate decides whether a single date is selectable in the given
// selection stage. room narrows the booked-date check to one room; nil checks
// the property-wide status only.
//
// Precedence, highest first: past date, fully booked, calendar restriction,
// same-day cutoff. Fully booked dominates everything after it, including the
// cutoff.
func (e *Evaluator) ClassifyDate(d booking.Date, room *booking.Room, stage booking.SelectionStage) Classification {
	status := e.snap.StatusOf(d)
	out := Classification{Status: status}

	if d.Before(e.today) {
		out.Reason = ReasonPastDate
		return out
	}

	if status == calendar.StatusFullyBooked || (room != nil && room.IsBooked(d)) {
		out.Reason = ReasonFullyBooked
		return out
	}

	restr := e.snap.RestrictionOf(d)
	arrival, pickingDeparture := stage.PickingDeparture()
	if pickingDeparture {
		if !d.After(arrival) {
			out.Reason = ReasonBadOrder
			return out
		}
		if !restr.CanCheckOut {
			out.Reason = restr.PrimaryReason(ReasonNoCheckOut)
			return out
		}
		// A departure is only reachable if every night before it is open.
		for _, night := range booking.DatesBetween(arrival, d) {
			if reason, ok := e.nightBlocked(night, room); ok {
				out.Reason = reason
				return out
			}
		}
		nights := arrival.NightsUntil(d)
		if minStay := e.EffectiveMinStay(arrival); nights < minStay {
			out.Reason = minStayReason(minStay)
			return out
		}
		if maxStay, ok := e.EffectiveMaxStay(arrival); ok && nights > maxStay {
			out.Reason = maxStayReason(maxStay)
			return out
		}
	} else {
		if !restr.CanCheckIn {
			out.Reason = restr.PrimaryReason(ReasonNoCheckIn)
			return out
		}
		if d == e.today && e.snap.Settings.CutoffPassed(e.now) {
			out.Reason = ReasonCutoffPassed
			return out
		}
	}

	out.Selectable = true
	return out
}

// ValidateStay checks a full arrival/departure pair against the room and the
// calendar. It returns nil or the first failing rule as a ValidationError;
// failures are never aggregated.
func (e *Evaluator) ValidateStay(arrival, departure booking.Date, room *booking.Room) error {
	if !departure.After(arrival) {
		return booking.ValidationError{Reason: ReasonBadOrder}
	}
	if arrival.Before(e.today) {
		return booking.ValidationError{Reason: ReasonPastDate}
	}

	if e.snap.StatusOf(arrival) == calendar.StatusFullyBooked || (room != nil && room.IsBooked(arrival)) {
		return booking.ValidationError{Reason: ReasonFullyBooked}
	}

	arrivalRestr := e.snap.RestrictionOf(arrival)
	if !arrivalRestr.CanCheckIn {
		return booking.ValidationError{Reason: arrivalRestr.PrimaryReason(ReasonNoCheckIn)}
	}
	departureRestr := e.snap.RestrictionOf(departure)
	if !departureRestr.CanCheckOut {
		return booking.ValidationError{Reason: departureRestr.PrimaryReason(ReasonNoCheckOut)}
	}

	if arrival == e.today && e.snap.Settings.CutoffPassed(e.now) {
		return booking.ValidationError{Reason: ReasonCutoffPassed}
	}

	nights := arrival.NightsUntil(departure)
	if minStay := e.EffectiveMinStay(arrival); nights < minStay {
		return booking.ValidationError{Reason: minStayReason(minStay)}
	}
	if maxStay, ok := e.EffectiveMaxStay(arrival); ok && nights > maxStay {
		return booking.ValidationError{Reason: maxStayReason(maxStay)}
	}

	// Every night of the stay must independently be open; the departure date
	// itself is excluded.
	for _, night := range booking.DatesBetween(arrival, departure) {
		if reason, ok := e.nightBlocked(night, room); ok {
			return booking.ValidationError{Reason: reason}
		}
	}

	return nil
}

// nightBlocked checks a single night against the booked sets and the canStay
// flag.
func (e *Evaluator) nightBlocked(night booking.Date, room *booking.Room) (string, bool) {
	if e.snap.StatusOf(night) == calendar.StatusFullyBooked || (room != nil && room.IsBooked(night)) {
		return ReasonFullyBooked, true
	}
	if restr := e.snap.RestrictionOf(night); !restr.CanStay {
		return restr.PrimaryReason(ReasonNoStay), true
	}
	return "", false
}

func minStayReason(minStay int) string {
	return fmt.Sprintf("minimum stay is %d nights", minStay)
}

func maxStayReason(maxStay int) string {
	return fmt.Sprintf("maximum stay is %d nights", maxStay)
}
