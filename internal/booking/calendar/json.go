package calendar

import (
	"encoding/json"

	"github.com/casaleverde/bookingengine/internal/booking"
)

// snapshotJSON is the persisted form of a Snapshot. The override index uses a
// struct key and needs flattening before encoding.
type snapshotJSON struct {
	Start            booking.Date                     `json:"start"`
	End              booking.Date                     `json:"end"`
	Status           map[booking.Date]BookingStatus   `json:"status"`
	Restrictions     map[booking.Date]DateRestriction `json:"restrictions"`
	Rooms            []booking.Room                   `json:"rooms"`
	UnavailableRooms []string                         `json:"unavailableRooms"`
	Rates            map[string]booking.RatePolicy    `json:"rates"`
	Overrides        []booking.RateDatePrice          `json:"overrides"`
	Settings         GeneralSettings                  `json:"settings"`
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Start:            s.Start,
		End:              s.End,
		Status:           s.Status,
		Restrictions:     s.Restrictions,
		Rooms:            s.Rooms,
		UnavailableRooms: s.UnavailableRooms,
		Rates:            s.Rates,
		Settings:         s.Settings,
	}
	for key, price := range s.overrides {
		out.Overrides = append(out.Overrides, booking.RateDatePrice{
			RateID: key.rateID,
			RoomID: key.roomID,
			Date:   key.date,
			Price:  price,
			Active: true,
		})
	}
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Snapshot{
		Start:            in.Start,
		End:              in.End,
		Status:           in.Status,
		Restrictions:     in.Restrictions,
		Rooms:            in.Rooms,
		UnavailableRooms: in.UnavailableRooms,
		Rates:            in.Rates,
		Settings:         in.Settings,
		overrides:        make(map[overrideKey]float64, len(in.Overrides)),
	}
	if s.Status == nil {
		s.Status = map[booking.Date]BookingStatus{}
	}
	if s.Restrictions == nil {
		s.Restrictions = map[booking.Date]DateRestriction{}
	}
	if s.Rates == nil {
		s.Rates = map[string]booking.RatePolicy{}
	}
	for _, o := range in.Overrides {
		s.overrides[overrideKey{rateID: o.RateID, roomID: o.RoomID, date: o.Date}] = o.Price
	}
	return nil
}
