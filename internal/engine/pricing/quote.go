package pricing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// Quote is the final price breakdown handed to the checkout layer. Every
// monetary field is rounded to the cent.
type Quote struct {
	ID        string       `json:"id"`
	RoomID    string       `json:"roomId"`
	RateID    string       `json:"rateId"`
	CheckIn   booking.Date `json:"checkIn"`
	CheckOut  booking.Date `json:"checkOut"`
	Nights    int          `json:"nights"`
	RoomCount int          `json:"roomCount"`

	NightlyTotal     float64 `json:"nightlyTotal"`
	AdjustedTotal    float64 `json:"adjustedTotal"`
	ExtraBedCost     float64 `json:"extraBedCost"`
	EnhancementTotal float64 `json:"enhancementTotal"`
	EventTotal       float64 `json:"eventTotal"`

	GrandTotal      float64 `json:"grandTotal"`
	SubtotalExclTax float64 `json:"subtotalExclTax"`
	Tax             float64 `json:"tax"`
	Discount        float64 `json:"discount"`
	FinalTotal      float64 `json:"finalTotal"`
	// DueNow is the charge to initiate: the prepay share for SPLIT payment
	// rates, the full amount otherwise.
	DueNow    float64  `json:"dueNow"`
	FreeItems []string `json:"freeItems,omitempty"`
}

// BuildQuote prices a complete selection. Room, rate and dates must already
// be fixed; voucher may be nil. The selection itself is only read.
func (e *Engine) BuildQuote(sel booking.BookingSelection, voucher *booking.Voucher) (*Quote, error) {
	if !sel.CheckOut.After(sel.CheckIn) {
		return nil, booking.ValidationError{Reason: "departure must be after arrival"}
	}
	room, ok := e.snap.Room(sel.RoomID)
	if !ok {
		return nil, booking.ValidationError{Reason: fmt.Sprintf("unknown room %q", sel.RoomID)}
	}
	rate, ok := e.snap.Rate(sel.RateID)
	if !ok {
		return nil, booking.ValidationError{Reason: fmt.Sprintf("rate %q is not available", sel.RateID)}
	}
	if _, ok := room.RateLink(rate.ID); !ok {
		return nil, booking.ValidationError{Reason: fmt.Sprintf("rate %q is not offered for this room", sel.RateID)}
	}
	if !e.rateAllowedForStay(rate.ID, sel.CheckIn, sel.CheckOut) {
		return nil, booking.ValidationError{Reason: fmt.Sprintf("rate %q is not available for the selected dates", sel.RateID)}
	}

	// The party must fit the room at standard capacity, or with extra beds
	// when the room offers them. An oversize party is a hard stop here, never
	// silently clamped or billed for beds the room cannot hold.
	if sel.ExtraBed.Enabled {
		if !room.AllowsExtraBed {
			return nil, booking.ValidationError{Reason: fmt.Sprintf("room %q does not offer extra beds", room.ID)}
		}
		if maxBeds := room.MaxCapacityWithExtraBed - room.Capacity; sel.ExtraBed.Count > maxBeds {
			return nil, booking.ValidationError{Reason: fmt.Sprintf("at most %d extra beds fit room %q", maxBeds, room.ID)}
		}
	}
	limit := room.Capacity
	if sel.ExtraBed.Enabled {
		limit = room.MaxCapacityWithExtraBed
	}
	if sel.Adults > limit*max(sel.RoomCount, 1) {
		return nil, booking.UnresolvedCapacityError{Adults: sel.Adults}
	}

	stay := e.PriceStay(room, rate, sel.CheckIn, sel.CheckOut, sel.RoomCount)

	q := &Quote{
		ID:        uuid.New().String(),
		RoomID:    room.ID,
		RateID:    rate.ID,
		CheckIn:   sel.CheckIn,
		CheckOut:  sel.CheckOut,
		Nights:    stay.Nights,
		RoomCount: max(sel.RoomCount, 1),
	}

	extraBed := ExtraBedCost(room, sel.ExtraBed, stay.Nights, sel.RoomCount)

	var enhancements float64
	for _, enh := range sel.Enhancements {
		enhancements += EnhancementCost(enh, sel.Adults, stay.Nights)
	}
	var events float64
	for _, ev := range sel.Events {
		events += EventCost(ev)
	}

	grand := stay.AdjustedTotal + extraBed + enhancements + events
	taxes := BackOutTax(grand, e.snap.Settings.TaxPercent)
	discount, freeItems := ApplyVoucher(voucher, grand)
	final := grand - discount

	q.NightlyTotal = Round2(stay.NightlyTotal)
	q.AdjustedTotal = Round2(stay.AdjustedTotal)
	q.ExtraBedCost = Round2(extraBed)
	q.EnhancementTotal = Round2(enhancements)
	q.EventTotal = Round2(events)
	q.GrandTotal = Round2(grand)
	q.SubtotalExclTax = taxes.SubtotalExclTax
	q.Tax = taxes.Tax
	q.Discount = Round2(discount)
	q.FinalTotal = Round2(final)
	q.FreeItems = freeItems

	if rate.Payment == booking.PaymentSplit && rate.PrepayPercent > 0 {
		q.DueNow = Round2(final * rate.PrepayPercent / 100)
	} else {
		q.DueNow = q.FinalTotal
	}
	return q, nil
}

// rateAllowedForStay checks the per-date applicable-rate lists across every
// night of the stay. A night without a list places no constraint.
func (e *Engine) rateAllowedForStay(rateID string, arrival, departure booking.Date) bool {
	for _, night := range booking.DatesBetween(arrival, departure) {
		restr := e.snap.RestrictionOf(night)
		if len(restr.RateIDs) == 0 {
			continue
		}
		found := false
		for _, id := range restr.RateIDs {
			if id == rateID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
