package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

func TestFetchSnapshot(t *testing.T) {
	taxPercent := 10.0
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(calendar.RawSnapshot{
			StartDate:        "2025-06-01",
			EndDate:          "2025-07-01",
			FullyBookedDates: []string{"2025-06-05"},
			AvailableRooms: []calendar.RawRoom{
				{ID: "terra", NightlyPrice: 100, Capacity: 2},
			},
			GeneralSettings: calendar.RawSettings{MinStayDays: 2, TaxPercentage: &taxPercent},
		})
	}))
	defer server.Close()

	client := New(Config{AvailabilityURL: server.URL})
	snap, err := client.FetchSnapshot(context.Background(), booking.MustDate("2025-06-01"), booking.MustDate("2025-07-01"))
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if gotQuery != "start=2025-06-01&end=2025-07-01" {
		t.Errorf("Unexpected query: %s", gotQuery)
	}
	if snap.StatusOf(booking.MustDate("2025-06-05")) != calendar.StatusFullyBooked {
		t.Error("Expected the booked date to parse")
	}
	if _, ok := snap.Room("terra"); !ok {
		t.Error("Expected the room to parse")
	}
	if snap.Settings.TaxPercent != 10 {
		t.Errorf("Expected tax percent 10, got %.1f", snap.Settings.TaxPercent)
	}
}

func TestFetchSnapshotFillsMissingWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{AvailabilityURL: server.URL})
	start := booking.MustDate("2025-06-01")
	end := booking.MustDate("2025-07-01")
	snap, err := client.FetchSnapshot(context.Background(), start, end)
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if snap.Start != start || snap.End != end {
		t.Errorf("Expected the request window back, got %s..%s", snap.Start, snap.End)
	}
}

func TestFetchSnapshotErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{AvailabilityURL: server.URL})
	_, err := client.FetchSnapshot(context.Background(), booking.MustDate("2025-06-01"), booking.MustDate("2025-07-01"))
	var ferr booking.UpstreamFetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("Expected an upstream error, got %v", err)
	}
	if ferr.Service != "availability" || ferr.Status != http.StatusBadGateway {
		t.Errorf("Unexpected error detail: %+v", ferr)
	}
}

func TestFetchSnapshotUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // shut down before the call

	client := New(Config{AvailabilityURL: server.URL})
	_, err := client.FetchSnapshot(context.Background(), booking.MustDate("2025-06-01"), booking.MustDate("2025-07-01"))
	var ferr booking.UpstreamFetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("Expected an upstream error, got %v", err)
	}
	if ferr.Unwrap() == nil {
		t.Error("Expected the transport error to be wrapped")
	}
}

func TestFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("roomId") != "terra" {
			t.Errorf("Unexpected roomId: %s", q.Get("roomId"))
		}
		// 2025-06-10 is a Tuesday; two nights cover Tuesday and Wednesday.
		weekdays := q["weekday"]
		if len(weekdays) != 2 || weekdays[0] != "TUESDAY" || weekdays[1] != "WEDNESDAY" {
			t.Errorf("Unexpected weekdays: %v", weekdays)
		}
		json.NewEncoder(w).Encode(Catalog{
			Enhancements: []booking.Enhancement{
				{ID: "breakfast", Pricing: booking.PerGuest, Price: 15},
			},
			Events: []booking.Event{
				{
					Enhancement: booking.Enhancement{ID: "tasting", Price: 35},
					EventDate:   booking.MustDate("2025-06-11"),
				},
			},
		})
	}))
	defer server.Close()

	client := New(Config{CatalogURL: server.URL})
	cat, err := client.FetchCatalog(context.Background(), booking.MustDate("2025-06-10"), booking.MustDate("2025-06-12"), "terra")
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	if len(cat.Enhancements) != 1 || cat.Enhancements[0].ID != "breakfast" {
		t.Errorf("Unexpected enhancements: %+v", cat.Enhancements)
	}
	if len(cat.Events) != 1 || cat.Events[0].ID != "tasting" {
		t.Errorf("Unexpected events: %+v", cat.Events)
	}
}

func TestFetchCatalogDeduplicatesWeekdays(t *testing.T) {
	var weekdays []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weekdays = r.URL.Query()["weekday"]
		json.NewEncoder(w).Encode(Catalog{})
	}))
	defer server.Close()

	client := New(Config{CatalogURL: server.URL})
	// A 10-night stay covers every weekday; the list still holds 7 entries.
	_, err := client.FetchCatalog(context.Background(), booking.MustDate("2025-06-10"), booking.MustDate("2025-06-20"), "terra")
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	if len(weekdays) != 7 {
		t.Fatalf("Expected 7 distinct weekdays, got %d: %v", len(weekdays), weekdays)
	}
	if weekdays[0] != "TUESDAY" {
		t.Errorf("Expected the stay's first weekday first, got %s", weekdays[0])
	}
	seen := map[string]struct{}{}
	for _, wd := range weekdays {
		if _, dup := seen[wd]; dup {
			t.Errorf("Duplicate weekday %s", wd)
		}
		seen[wd] = struct{}{}
	}
}

func TestClientSendsAPIKey(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{AvailabilityURL: server.URL, VoucherURL: server.URL, APIKey: "sesame"})
	if _, err := client.FetchSnapshot(context.Background(), booking.MustDate("2025-06-01"), booking.MustDate("2025-07-01")); err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if auth != "Bearer sesame" {
		t.Errorf("Expected the bearer token on availability calls, got %q", auth)
	}

	if _, err := client.ValidateVoucher(context.Background(), "SUMMER20"); err != nil {
		t.Fatalf("ValidateVoucher failed: %v", err)
	}
	if auth != "Bearer sesame" {
		t.Errorf("Expected the bearer token on voucher calls, got %q", auth)
	}

	auth = "unset"
	bare := New(Config{AvailabilityURL: server.URL})
	if _, err := bare.FetchSnapshot(context.Background(), booking.MustDate("2025-06-01"), booking.MustDate("2025-07-01")); err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if auth != "" {
		t.Errorf("Expected no auth header without a key, got %q", auth)
	}
}

func TestValidateVoucher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/SUMMER20":
			json.NewEncoder(w).Encode(map[string]any{
				"code": "SUMMER20", "type": "DISCOUNT", "discountPercent": 20,
			})
		case "/GONE":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := New(Config{VoucherURL: server.URL})

	voucher, err := client.ValidateVoucher(context.Background(), "SUMMER20")
	if err != nil {
		t.Fatalf("ValidateVoucher failed: %v", err)
	}
	if voucher.Type != booking.VoucherDiscount || voucher.DiscountPercent != 20 {
		t.Errorf("Unexpected voucher: %+v", voucher)
	}

	_, err = client.ValidateVoucher(context.Background(), "GONE")
	if !errors.Is(err, booking.ErrVoucherNotFound) {
		t.Fatalf("Expected ErrVoucherNotFound, got %v", err)
	}

	_, err = client.ValidateVoucher(context.Background(), "BROKEN")
	var ferr booking.UpstreamFetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("Expected an upstream error, got %v", err)
	}
	if ferr.Status != http.StatusInternalServerError {
		t.Errorf("Unexpected status: %d", ferr.Status)
	}
}
