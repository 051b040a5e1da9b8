package calendar

import (
	"fmt"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// RawSnapshot mirrors the Availability Service response body. Dates travel as
// YYYY-MM-DD strings in local calendar terms.
type RawSnapshot struct {
	StartDate            string                    `json:"startDate"`
	EndDate              string                    `json:"endDate"`
	FullyBookedDates     []string                  `json:"fullyBookedDates"`
	PartiallyBookedDates []string                  `json:"partiallyBookedDates"`
	AvailableDates       []string                  `json:"availableDates"`
	RestrictedDates      []string                  `json:"restrictedDates"`
	DateRestrictions     map[string]RawRestriction `json:"dateRestrictions"`
	AvailableRooms       []RawRoom                 `json:"availableRooms"`
	UnavailableRooms     []string                  `json:"unavailableRooms"`
	Rates                []RawRate                 `json:"rates"`
	RateDatePrices       []RawRateDatePrice        `json:"rateDatePrices"`
	GeneralSettings      RawSettings               `json:"generalSettings"`
}

type RawRestriction struct {
	CanCheckIn  bool     `json:"canCheckIn"`
	CanCheckOut bool     `json:"canCheckOut"`
	CanStay     bool     `json:"canStay"`
	MinimumStay int      `json:"minimumStay"`
	MaximumStay int      `json:"maximumStay"`
	Reasons     []string `json:"restrictionReasons"`
	RateIDs     []string `json:"rateIds"`
}

type RawRoom struct {
	ID                      string             `json:"id"`
	Name                    string             `json:"name"`
	NightlyPrice            float64            `json:"nightlyPrice"`
	Capacity                int                `json:"capacity"`
	AllowsExtraBed          bool               `json:"allowsExtraBed"`
	MaxCapacityWithExtraBed int                `json:"maxCapacityWithExtraBed"`
	ExtraBedPrice           float64            `json:"extraBedPrice"`
	PriceOverrides          map[string]float64 `json:"priceOverrides"`
	BookedDates             []string           `json:"bookedDates"`
	Rates                   []RawRoomRate      `json:"rates"`
}

type RawRoomRate struct {
	RateID            string  `json:"rateId"`
	PercentAdjustment float64 `json:"percentageAdjustment"`
	IsActive          bool    `json:"isActive"`
}

type RawRate struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	BasePrice         float64 `json:"basePrice"`
	AdjustmentPercent float64 `json:"adjustmentPercentage"`
	PrepayPercent     float64 `json:"prepayPercentage"`
	PaymentStructure  string  `json:"paymentStructure"`
	Refundable        bool    `json:"refundable"`
	CancellationDays  int     `json:"cancellationDays"`
	ChangeDays        int     `json:"changeDays"`
	RebookDays        int     `json:"rebookDays"`
	IsActive          bool    `json:"isActive"`
}

type RawRateDatePrice struct {
	RateID   string  `json:"rateId"`
	RoomID   string  `json:"roomId"`
	Date     string  `json:"date"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`
}

type RawSettings struct {
	MinStayDays int `json:"minStayDays"`
	// A nil TaxPercentage means the setting was omitted; zero is a real
	// tax-free rate.
	TaxPercentage         *float64 `json:"taxPercentage"`
	DailyBookingStartTime string   `json:"dailyBookingStartTime"`
}

// FromRaw validates and parses a raw availability response into a Snapshot.
func FromRaw(raw RawSnapshot) (*Snapshot, error) {
	start, err := booking.ParseDate(raw.StartDate)
	if err != nil {
		return nil, fmt.Errorf("snapshot start: %w", err)
	}
	end, err := booking.ParseDate(raw.EndDate)
	if err != nil {
		return nil, fmt.Errorf("snapshot end: %w", err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("snapshot window %s..%s is empty", start, end)
	}

	snap := Empty(start, end)

	for _, s := range raw.FullyBookedDates {
		d, err := booking.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("fully booked date: %w", err)
		}
		snap.Status[d] = StatusFullyBooked
	}
	for _, s := range raw.PartiallyBookedDates {
		d, err := booking.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("partially booked date: %w", err)
		}
		// Fully booked wins if the service reports a date under both.
		if snap.Status[d] != StatusFullyBooked {
			snap.Status[d] = StatusPartiallyBooked
		}
	}

	for s, rawRestr := range raw.DateRestrictions {
		d, err := booking.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("restricted date: %w", err)
		}
		snap.Restrictions[d] = DateRestriction{
			CanCheckIn:  rawRestr.CanCheckIn,
			CanCheckOut: rawRestr.CanCheckOut,
			CanStay:     rawRestr.CanStay,
			MinimumStay: rawRestr.MinimumStay,
			MaximumStay: rawRestr.MaximumStay,
			Reasons:     rawRestr.Reasons,
			RateIDs:     rawRestr.RateIDs,
		}
	}

	for _, rawRoom := range raw.AvailableRooms {
		room, err := parseRoom(rawRoom)
		if err != nil {
			return nil, err
		}
		snap.Rooms = append(snap.Rooms, room)
	}
	snap.UnavailableRooms = raw.UnavailableRooms

	for _, rawRate := range raw.Rates {
		if rawRate.ID == "" {
			return nil, fmt.Errorf("rate policy without id")
		}
		snap.Rates[rawRate.ID] = booking.RatePolicy{
			ID:                rawRate.ID,
			Name:              rawRate.Name,
			BasePrice:         rawRate.BasePrice,
			AdjustmentPercent: rawRate.AdjustmentPercent,
			PrepayPercent:     rawRate.PrepayPercent,
			Payment:           booking.PaymentStructure(rawRate.PaymentStructure),
			Refundable:        rawRate.Refundable,
			CancellationDays:  rawRate.CancellationDays,
			ChangeDays:        rawRate.ChangeDays,
			RebookDays:        rawRate.RebookDays,
			Active:            rawRate.IsActive,
		}
	}

	for _, rawPrice := range raw.RateDatePrices {
		if !rawPrice.IsActive {
			continue
		}
		d, err := booking.ParseDate(rawPrice.Date)
		if err != nil {
			return nil, fmt.Errorf("rate date price: %w", err)
		}
		snap.overrides[overrideKey{rateID: rawPrice.RateID, roomID: rawPrice.RoomID, date: d}] = rawPrice.Price
	}

	cutoff, err := parseCutoff(raw.GeneralSettings.DailyBookingStartTime)
	if err != nil {
		return nil, err
	}
	snap.Settings = GeneralSettings{
		MinStayDays:   raw.GeneralSettings.MinStayDays,
		CutoffMinutes: cutoff,
	}
	if raw.GeneralSettings.TaxPercentage != nil {
		snap.Settings.TaxPercent = *raw.GeneralSettings.TaxPercentage
		snap.Settings.TaxPercentSet = true
	}

	return snap, nil
}

func parseRoom(raw RawRoom) (booking.Room, error) {
	if raw.ID == "" {
		return booking.Room{}, fmt.Errorf("room without id")
	}
	room := booking.Room{
		ID:                      raw.ID,
		Name:                    raw.Name,
		NightlyPrice:            raw.NightlyPrice,
		Capacity:                raw.Capacity,
		AllowsExtraBed:          raw.AllowsExtraBed,
		MaxCapacityWithExtraBed: raw.MaxCapacityWithExtraBed,
		ExtraBedPrice:           raw.ExtraBedPrice,
		PriceOverrides:          map[booking.Date]float64{},
		BookedDates:             map[booking.Date]struct{}{},
	}
	for s, price := range raw.PriceOverrides {
		d, err := booking.ParseDate(s)
		if err != nil {
			return booking.Room{}, fmt.Errorf("room %s price override: %w", raw.ID, err)
		}
		room.PriceOverrides[d] = price
	}
	for _, s := range raw.BookedDates {
		d, err := booking.ParseDate(s)
		if err != nil {
			return booking.Room{}, fmt.Errorf("room %s booked date: %w", raw.ID, err)
		}
		room.BookedDates[d] = struct{}{}
	}
	for _, link := range raw.Rates {
		room.Rates = append(room.Rates, booking.RoomRate{
			RoomID:            raw.ID,
			RateID:            link.RateID,
			PercentAdjustment: link.PercentAdjustment,
			Active:            link.IsActive,
		})
	}
	return room, nil
}
