// Package gaps finds bookable sub-ranges inside a partially booked window.
package gaps

import (
	"sort"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// Range is a half-open [Start, End) candidate stay: the guest sleeps the
// nights Start..End-1 and checks out on End.
type Range struct {
	Start booking.Date `json:"start"`
	End   booking.Date `json:"end"`
}

// Nights returns the length of the range in nights.
func (r Range) Nights() int {
	return r.Start.NightsUntil(r.End)
}

// Find walks the desired [arrival, departure) window of a room with partial
// conflicts and returns the maximal free sub-ranges of at least minStay
// nights, in ascending order. Booked dates touching the window edges simply
// truncate the neighbouring gap.
func Find(room *booking.Room, arrival, departure booking.Date, minStay int) []Range {
	if room == nil || !arrival.Before(departure) {
		return nil
	}
	if minStay < 1 {
		minStay = 1
	}

	var booked []booking.Date
	for d := range room.BookedDates {
		if !d.Before(arrival) && d.Before(departure) {
			booked = append(booked, d)
		}
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].Before(booked[j]) })

	var out []Range
	gapStart := arrival
	for _, b := range booked {
		// A stay may still check out on the booked date itself; the night
		// before it is the last one used.
		if gapStart.NightsUntil(b) >= minStay {
			out = append(out, Range{Start: gapStart, End: b})
		}
		gapStart = b.AddDays(1)
	}
	if gapStart.Before(departure) && gapStart.NightsUntil(departure) >= minStay {
		out = append(out, Range{Start: gapStart, End: departure})
	}
	return out
}
