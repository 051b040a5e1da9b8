// Package capacity checks whether a room fits a party, with or without extra
// beds, and collects alternative rooms that could.
package capacity

import (
	"sort"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// ExtraBedOption describes accommodating the party in the current room via
// extra beds.
type ExtraBedOption struct {
	Viable     bool    `json:"viable"`
	BedsNeeded int     `json:"bedsNeeded"`
	Cost       float64 `json:"cost"` // beds x nightly bed price x nights
}

// Alternative is another room that fits the party, with the extra beds it
// would imply.
type Alternative struct {
	Room       *booking.Room `json:"-"`
	RoomID     string        `json:"roomId"`
	BedsNeeded int           `json:"bedsNeeded"`
	Cost       float64       `json:"cost"`
}

// Resolution is the outcome of a capacity check.
type Resolution struct {
	// Fits is true when the room holds the party at standard capacity.
	Fits         bool           `json:"fits"`
	ExtraBed     ExtraBedOption `json:"extraBed"`
	Alternatives []Alternative  `json:"alternatives"`
}

// Resolve checks the chosen room against the party size. Alternatives are
// always computed when the party exceeds standard capacity, even if the
// current room works with extra beds; the caller offers both side by side.
// When nothing fits, an UnresolvedCapacityError is returned.
func Resolve(room *booking.Room, adults, nights int, allRooms []booking.Room) (Resolution, error) {
	if adults <= room.Capacity {
		return Resolution{Fits: true}, nil
	}

	res := Resolution{}
	bedsNeeded := adults - room.Capacity
	if room.AllowsExtraBed && adults <= room.MaxCapacityWithExtraBed {
		res.ExtraBed = ExtraBedOption{
			Viable:     true,
			BedsNeeded: bedsNeeded,
			Cost:       float64(bedsNeeded) * room.ExtraBedPrice * float64(nights),
		}
	}

	for i := range allRooms {
		alt := &allRooms[i]
		if alt.ID == room.ID {
			continue
		}
		switch {
		case adults <= alt.Capacity:
			res.Alternatives = append(res.Alternatives, Alternative{Room: alt, RoomID: alt.ID})
		case alt.AllowsExtraBed && adults <= alt.MaxCapacityWithExtraBed:
			altBeds := adults - alt.Capacity
			res.Alternatives = append(res.Alternatives, Alternative{
				Room:       alt,
				RoomID:     alt.ID,
				BedsNeeded: altBeds,
				Cost:       float64(altBeds) * alt.ExtraBedPrice * float64(nights),
			})
		}
	}
	sort.Slice(res.Alternatives, func(i, j int) bool {
		return res.Alternatives[i].RoomID < res.Alternatives[j].RoomID
	})

	if !res.ExtraBed.Viable && len(res.Alternatives) == 0 {
		return res, booking.UnresolvedCapacityError{Adults: adults}
	}
	return res, nil
}
