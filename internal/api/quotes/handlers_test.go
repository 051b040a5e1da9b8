package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casaleverde/bookingengine/internal/api/availability"
	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
	"github.com/casaleverde/bookingengine/internal/engine/pricing"
	"github.com/casaleverde/bookingengine/internal/snapcache"
	"github.com/casaleverde/bookingengine/internal/upstream"
)

type stubFetcher struct{}

func (stubFetcher) FetchSnapshot(ctx context.Context, start, end booking.Date) (*calendar.Snapshot, error) {
	taxPercent := 10.0
	return calendar.FromRaw(calendar.RawSnapshot{
		StartDate: start.String(),
		EndDate:   end.String(),
		AvailableRooms: []calendar.RawRoom{
			{
				ID:            "terra",
				NightlyPrice:  100,
				Capacity:      2,
				ExtraBedPrice: 20,
				Rates:         []calendar.RawRoomRate{{RateID: "flex", IsActive: true}},
			},
		},
		Rates: []calendar.RawRate{
			{ID: "flex", Name: "Flexible", PaymentStructure: "FULL", IsActive: true},
		},
		GeneralSettings: calendar.RawSettings{MinStayDays: 1, TaxPercentage: &taxPercent},
	})
}

type stubCatalog struct{}

func (stubCatalog) FetchCatalog(ctx context.Context, start, end booking.Date, roomID string) (*upstream.Catalog, error) {
	return &upstream.Catalog{
		Enhancements: []booking.Enhancement{
			{ID: "breakfast", Name: "Farm breakfast", Pricing: booking.PerGuest, Price: 15},
		},
		Events: []booking.Event{
			{
				Enhancement:      booking.Enhancement{ID: "tasting", Name: "Wine tasting", Price: 35},
				EventDate:        booking.MustDate("2025-06-11"),
				PlannedAttendees: 2,
			},
		},
	}, nil
}

type stubVouchers struct{}

func (stubVouchers) ValidateVoucher(ctx context.Context, code string) (*booking.Voucher, error) {
	if code != "SUMMER20" {
		return nil, booking.ErrVoucherNotFound
	}
	return &booking.Voucher{Code: code, Type: booking.VoucherDiscount, DiscountPercent: 20}, nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func init() {
	availability.InitHandlers(availability.Deps{
		Fetcher:           stubFetcher{},
		Cache:             snapcache.NewMemoryStore(snapcache.DefaultTTL, nil),
		Location:          time.UTC,
		Clock:             fixedClock{at: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		DefaultMinStay:    1,
		DefaultTaxPercent: 10,
	})
	InitHandlers(Deps{Catalog: stubCatalog{}, Vouchers: stubVouchers{}})
}

func postQuote(t *testing.T, body quoteRequest) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Request did not encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(buf))
	w := httptest.NewRecorder()
	HandleCreateQuote(w, req)
	return w
}

func baseRequest() quoteRequest {
	return quoteRequest{
		CheckIn:  booking.MustDate("2025-06-10"),
		CheckOut: booking.MustDate("2025-06-13"),
		RoomID:   "terra",
		RateID:   "flex",
		Adults:   2,
	}
}

func decodeQuote(t *testing.T, w *httptest.ResponseRecorder) pricing.Quote {
	t.Helper()
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var q pricing.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("Quote did not decode: %v", err)
	}
	return q
}

func TestHandleCreateQuote(t *testing.T) {
	q := decodeQuote(t, postQuote(t, baseRequest()))
	if q.GrandTotal != 300 {
		t.Errorf("Expected grand total 300, got %.2f", q.GrandTotal)
	}
	if q.SubtotalExclTax != 272.73 || q.Tax != 27.27 {
		t.Errorf("Expected 272.73 + 27.27, got %.2f + %.2f", q.SubtotalExclTax, q.Tax)
	}
	if q.DueNow != 300 {
		t.Errorf("Expected the full amount due now, got %.2f", q.DueNow)
	}
}

func TestHandleCreateQuoteWithExtras(t *testing.T) {
	req := baseRequest()
	req.Enhancements = []enhancementChoice{{ID: "breakfast"}}
	req.EventIDs = []string{"tasting"}
	req.VoucherCode = "SUMMER20"

	q := decodeQuote(t, postQuote(t, req))
	if q.EnhancementTotal != 30 {
		t.Errorf("Expected breakfast for 2 adults = 30, got %.2f", q.EnhancementTotal)
	}
	if q.EventTotal != 70 {
		t.Errorf("Expected tasting for 2 = 70, got %.2f", q.EventTotal)
	}
	// 20% off the 400 grand total.
	if q.GrandTotal != 400 || q.Discount != 80 || q.FinalTotal != 320 {
		t.Errorf("Unexpected totals: grand %.2f discount %.2f final %.2f", q.GrandTotal, q.Discount, q.FinalTotal)
	}
}

func TestHandleCreateQuoteRejectsUnknownExtras(t *testing.T) {
	req := baseRequest()
	req.Enhancements = []enhancementChoice{{ID: "helicopter"}}
	w := postQuote(t, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}

	req = baseRequest()
	req.EventIDs = []string{"opera"}
	w = postQuote(t, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCreateQuoteRejectsUnknownVoucher(t *testing.T) {
	req := baseRequest()
	req.VoucherCode = "EXPIRED"
	w := postQuote(t, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCreateQuoteRejectsOversizeParty(t *testing.T) {
	req := baseRequest()
	req.Adults = 9
	w := postQuote(t, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a party nothing accommodates, got %d: %s", w.Code, w.Body.String())
	}

	// The fixture room has no extra beds to sell.
	req = baseRequest()
	req.ExtraBed = booking.ExtraBed{Enabled: true, Count: 1}
	w = postQuote(t, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for extra beds the room does not offer, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCreateQuoteRejectsInvalidStay(t *testing.T) {
	req := baseRequest()
	req.CheckIn, req.CheckOut = req.CheckOut, req.CheckIn
	w := postQuote(t, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for reversed dates, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCreateQuoteRejectsBadRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	w := httptest.NewRecorder()
	HandleCreateQuote(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	body := baseRequest()
	body.RateID = ""
	if w := postQuote(t, body); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without rateId, got %d", w.Code)
	}
}
