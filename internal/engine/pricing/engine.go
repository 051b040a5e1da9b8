// Package pricing computes the cost of a fixed selection: per-night price
// resolution across layered sources, rate-level adjustment, extra beds,
// enhancements, events, tax back-calculation and voucher application. All
// stored prices are tax-inclusive euros; values are rounded to the cent at
// output boundaries only.
package pricing

import (
	"math"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

// Round2 rounds to the nearest cent.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Engine prices stays against one snapshot.
type Engine struct {
	snap *calendar.Snapshot
}

// New builds a pricing engine over a snapshot.
func New(snap *calendar.Snapshot) *Engine {
	return &Engine{snap: snap}
}

// PriceNight resolves the price of one night in strict priority order:
// an active per-date price for the rate+room pair, then the rate's base price
// adjusted by the room-rate percentage, then the room's own per-date or flat
// nightly price. A room or rate with no pricing data at all simply falls
// through to the lowest source; missing data never fails.
func (e *Engine) PriceNight(room *booking.Room, rate *booking.RatePolicy, d booking.Date) float64 {
	if rate != nil {
		if price, ok := e.snap.OverrideFor(rate.ID, room.ID, d); ok {
			return price
		}
		if rate.BasePrice > 0 {
			adjust := 0.0
			if link, ok := room.RateLink(rate.ID); ok {
				adjust = link.PercentAdjustment
			}
			return Round2(rate.BasePrice + rate.BasePrice*adjust/100)
		}
	}
	if price, ok := room.PriceOverrides[d]; ok {
		return price
	}
	return room.NightlyPrice
}

// StayPrice is the room cost of a stay before extras.
type StayPrice struct {
	Nights        int
	NightlyTotal  float64 // plain sum of PriceNight, before the rate adjustment
	AdjustedTotal float64 // after rate adjustment, times room count
}

// PriceStay sums PriceNight over [arrival, departure), applies the rate's
// adjustment percentage to the summed total, and multiplies by roomCount.
func (e *Engine) PriceStay(room *booking.Room, rate *booking.RatePolicy, arrival, departure booking.Date, roomCount int) StayPrice {
	if roomCount < 1 {
		roomCount = 1
	}
	out := StayPrice{Nights: arrival.NightsUntil(departure)}
	for _, night := range booking.DatesBetween(arrival, departure) {
		out.NightlyTotal += e.PriceNight(room, rate, night)
	}
	adjusted := out.NightlyTotal
	if rate != nil && rate.AdjustmentPercent != 0 {
		adjusted += out.NightlyTotal * rate.AdjustmentPercent / 100
	}
	out.AdjustedTotal = adjusted * float64(roomCount)
	return out
}

// ExtraBedCost prices the selected extra beds across the whole stay. A room
// that does not offer extra beds costs nothing here; BuildQuote rejects such
// selections outright.
func ExtraBedCost(room *booking.Room, beds booking.ExtraBed, nights, roomCount int) float64 {
	if !beds.Enabled || beds.Count < 1 || !room.AllowsExtraBed {
		return 0
	}
	if roomCount < 1 {
		roomCount = 1
	}
	return float64(beds.Count) * room.ExtraBedPrice * float64(nights) * float64(roomCount)
}

// EnhancementCost prices one selected enhancement. For per-guest pricing the
// quantity defaults to the adult count and is capped by MaxQuantity when set.
func EnhancementCost(sel booking.EnhancementSelection, adults, nights int) float64 {
	switch sel.Pricing {
	case booking.PerGuest:
		qty := sel.Quantity
		if qty <= 0 {
			qty = adults
		}
		if sel.MaxQuantity > 0 && qty > sel.MaxQuantity {
			qty = sel.MaxQuantity
		}
		return sel.Price * float64(qty)
	case booking.PerDay:
		return sel.Price * float64(nights)
	default: // PER_BOOKING
		return sel.Price
	}
}

// EventCost prices an event by its planned attendee count.
func EventCost(ev booking.Event) float64 {
	return ev.Price * float64(ev.PlannedAttendees)
}

// TaxBreakdown back-calculates tax out of a tax-inclusive total.
type TaxBreakdown struct {
	SubtotalExclTax float64
	Tax             float64
}

// BackOutTax derives the tax contained in grandTotal for the given percent
// rate. Both parts are rounded to the cent independently.
func BackOutTax(grandTotal, taxPercent float64) TaxBreakdown {
	if taxPercent <= 0 {
		return TaxBreakdown{SubtotalExclTax: Round2(grandTotal)}
	}
	rate := taxPercent / 100
	subtotal := grandTotal / (1 + rate)
	return TaxBreakdown{
		SubtotalExclTax: Round2(subtotal),
		Tax:             Round2(grandTotal - subtotal),
	}
}

// ApplyVoucher computes the discount a voucher takes off a tax-inclusive
// grand total. PRODUCT vouchers reduce nothing and instead return their free
// items.
func ApplyVoucher(v *booking.Voucher, grandTotal float64) (discount float64, freeItems []string) {
	if v == nil {
		return 0, nil
	}
	switch v.Type {
	case booking.VoucherDiscount:
		return grandTotal * v.DiscountPercent / 100, nil
	case booking.VoucherFixed:
		return math.Min(v.FixedAmount, grandTotal), nil
	case booking.VoucherProduct:
		return 0, v.Products
	}
	return 0, nil
}
