package pricing

import (
	"errors"
	"testing"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

func baseSelection() booking.BookingSelection {
	return booking.BookingSelection{
		CheckIn:   booking.MustDate(checkIn),
		CheckOut:  booking.MustDate(checkOut),
		Adults:    2,
		RoomCount: 1,
		RoomID:    "terra",
		RateID:    "flex",
	}
}

func TestBuildQuoteRoomOnly(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	q, err := engine.BuildQuote(baseSelection(), nil)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.ID == "" {
		t.Error("Expected a quote id")
	}
	if q.Nights != 3 {
		t.Errorf("Expected 3 nights, got %d", q.Nights)
	}
	if q.GrandTotal != 300 {
		t.Errorf("Expected grand total 300, got %.2f", q.GrandTotal)
	}
	if q.SubtotalExclTax != 272.73 || q.Tax != 27.27 {
		t.Errorf("Expected 272.73 + 27.27, got %.2f + %.2f", q.SubtotalExclTax, q.Tax)
	}
	if q.FinalTotal != 300 || q.DueNow != 300 {
		t.Errorf("Full payment must charge everything now, got final %.2f due %.2f", q.FinalTotal, q.DueNow)
	}
}

func TestBuildQuoteWithExtras(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	sel := baseSelection()
	sel.ExtraBed = booking.ExtraBed{Enabled: true, Count: 1}
	sel.Enhancements = []booking.EnhancementSelection{
		{Enhancement: booking.Enhancement{ID: "breakfast", Pricing: booking.PerGuest, Price: 15}},
	}
	sel.Events = []booking.Event{
		{
			Enhancement:      booking.Enhancement{ID: "tasting", Price: 35},
			EventDate:        booking.MustDate("2025-06-11"),
			PlannedAttendees: 2,
		},
	}

	q, err := engine.BuildQuote(sel, nil)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.ExtraBedCost != 60 {
		t.Errorf("Expected extra bed cost 60, got %.2f", q.ExtraBedCost)
	}
	if q.EnhancementTotal != 30 {
		t.Errorf("Expected breakfast for 2 adults = 30, got %.2f", q.EnhancementTotal)
	}
	if q.EventTotal != 70 {
		t.Errorf("Expected tasting for 2 = 70, got %.2f", q.EventTotal)
	}
	if q.GrandTotal != 460 {
		t.Errorf("Expected 300+60+30+70=460, got %.2f", q.GrandTotal)
	}
}

func TestBuildQuoteDiscountVoucher(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	voucher := &booking.Voucher{Code: "SUMMER20", Type: booking.VoucherDiscount, DiscountPercent: 20}
	q, err := engine.BuildQuote(baseSelection(), voucher)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.Discount != 60 {
		t.Errorf("Expected 60 off 300, got %.2f", q.Discount)
	}
	if q.FinalTotal != 240 {
		t.Errorf("Expected final 240, got %.2f", q.FinalTotal)
	}
	// Tax is backed out of the pre-discount total.
	if q.Tax != 27.27 {
		t.Errorf("Expected tax 27.27, got %.2f", q.Tax)
	}
}

func TestBuildQuoteProductVoucher(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	voucher := &booking.Voucher{Code: "OIL", Type: booking.VoucherProduct, Products: []string{"olive oil"}}
	q, err := engine.BuildQuote(baseSelection(), voucher)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.Discount != 0 || q.FinalTotal != 300 {
		t.Errorf("Product voucher must not change the total, got discount %.2f final %.2f", q.Discount, q.FinalTotal)
	}
	if len(q.FreeItems) != 1 || q.FreeItems[0] != "olive oil" {
		t.Errorf("Expected free items, got %v", q.FreeItems)
	}
}

func TestBuildQuoteSplitPayment(t *testing.T) {
	snap := pricingSnapshot(t)
	rate := snap.Rates["flex"]
	rate.Payment = booking.PaymentSplit
	rate.PrepayPercent = 30
	snap.Rates["flex"] = rate
	engine := New(snap)

	q, err := engine.BuildQuote(baseSelection(), nil)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.FinalTotal != 300 {
		t.Errorf("Expected final 300, got %.2f", q.FinalTotal)
	}
	if q.DueNow != 90 {
		t.Errorf("Expected 30%% due now = 90, got %.2f", q.DueNow)
	}
}

func TestBuildQuoteRejectsBadSelection(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	tests := []struct {
		name   string
		mutate func(*booking.BookingSelection)
	}{
		{"unknown room", func(s *booking.BookingSelection) { s.RoomID = "nowhere" }},
		{"unknown rate", func(s *booking.BookingSelection) { s.RateID = "mystery" }},
		{"reversed dates", func(s *booking.BookingSelection) { s.CheckIn, s.CheckOut = s.CheckOut, s.CheckIn }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := baseSelection()
			tt.mutate(&sel)
			_, err := engine.BuildQuote(sel, nil)
			var verr booking.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestBuildQuoteRejectsInactiveRateLink(t *testing.T) {
	snap := pricingSnapshot(t)
	room, _ := snap.Room("terra")
	room.Rates[0].Active = false
	engine := New(snap)

	_, err := engine.BuildQuote(baseSelection(), nil)
	var verr booking.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
}

func TestBuildQuoteEnforcesCapacity(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	// A party nothing accommodates is a hard stop, not a priced quote.
	sel := baseSelection()
	sel.Adults = 9
	sel.ExtraBed = booking.ExtraBed{Enabled: true, Count: 7}
	_, err := engine.BuildQuote(sel, nil)
	var capErr booking.UnresolvedCapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Expected an unresolved capacity error, got %v", err)
	}
	if capErr.Adults != 9 {
		t.Errorf("Expected the party size in the error, got %d", capErr.Adults)
	}

	// Over capacity without opting into extra beds fails the same way.
	sel = baseSelection()
	sel.Adults = 3
	if _, err := engine.BuildQuote(sel, nil); !errors.As(err, &capErr) {
		t.Errorf("Expected an unresolved capacity error without extra beds, got %v", err)
	}

	// With extra beds enabled the same party prices normally.
	sel.ExtraBed = booking.ExtraBed{Enabled: true, Count: 1}
	q, err := engine.BuildQuote(sel, nil)
	if err != nil {
		t.Fatalf("BuildQuote failed: %v", err)
	}
	if q.ExtraBedCost != 60 {
		t.Errorf("Expected extra bed cost 60, got %.2f", q.ExtraBedCost)
	}
}

func TestBuildQuoteRejectsImpossibleExtraBeds(t *testing.T) {
	snap := pricingSnapshot(t)
	engine := New(snap)

	// Extra beds on a room that has none.
	sel := baseSelection()
	sel.RoomID = "fonte"
	sel.ExtraBed = booking.ExtraBed{Enabled: true, Count: 1}
	_, err := engine.BuildQuote(sel, nil)
	var verr booking.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}

	// More beds than the room's extra-bed headroom.
	sel = baseSelection()
	sel.ExtraBed = booking.ExtraBed{Enabled: true, Count: 3}
	if _, err := engine.BuildQuote(sel, nil); !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error for too many beds, got %v", err)
	}
}

func TestBuildQuoteRespectsApplicableRates(t *testing.T) {
	snap := pricingSnapshot(t)
	// One night of the stay only sells under a different rate.
	snap.Restrictions[booking.MustDate("2025-06-11")] = calendar.DateRestriction{
		CanCheckIn:  true,
		CanCheckOut: true,
		CanStay:     true,
		RateIDs:     []string{"nonrefundable"},
	}
	engine := New(snap)

	_, err := engine.BuildQuote(baseSelection(), nil)
	var verr booking.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}

	// Listing the chosen rate lifts the constraint again.
	snap.Restrictions[booking.MustDate("2025-06-11")] = calendar.DateRestriction{
		CanCheckIn:  true,
		CanCheckOut: true,
		CanStay:     true,
		RateIDs:     []string{"nonrefundable", "flex"},
	}
	if _, err := engine.BuildQuote(baseSelection(), nil); err != nil {
		t.Fatalf("Expected the quote to build, got %v", err)
	}
}
