// internal/api/availability/handlers.go
package availability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/casaleverde/bookingengine/internal/api/apiutil"
	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
	"github.com/casaleverde/bookingengine/internal/engine/capacity"
	"github.com/casaleverde/bookingengine/internal/engine/gaps"
	"github.com/casaleverde/bookingengine/internal/engine/restriction"
	"github.com/casaleverde/bookingengine/internal/snapcache"
)

const availabilityQueryTimeout = 15 * time.Second

// SnapshotFetcher fetches a fresh availability window from upstream.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, start, end booking.Date) (*calendar.Snapshot, error)
}

// Deps are the collaborators the availability handlers need.
type Deps struct {
	Fetcher           SnapshotFetcher
	Cache             snapcache.Store
	Location          *time.Location
	Clock             snapcache.Clock
	DefaultMinStay    int
	DefaultTaxPercent float64
}

var (
	deps     Deps
	depsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	depsOnce.Do(func() {
		if d.Location == nil {
			d.Location = time.UTC
		}
		deps = d
	})
}

// Now returns the current instant in the booking reference timezone.
func Now() time.Time {
	if deps.Clock != nil {
		return deps.Clock.Now().In(deps.Location)
	}
	return time.Now().In(deps.Location)
}

// LoadSnapshot returns the snapshot for a window, from cache when fresh.
// Missing settings fall back to the configured defaults before caching.
func LoadSnapshot(ctx context.Context, start, end booking.Date) (*calendar.Snapshot, error) {
	key := snapcache.Key{Start: start, End: end}
	if snap, ok := deps.Cache.Get(key); ok {
		return snap, nil
	}

	snap, err := deps.Fetcher.FetchSnapshot(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if !snap.Settings.TaxPercentSet {
		snap.Settings.TaxPercent = deps.DefaultTaxPercent
		snap.Settings.TaxPercentSet = true
	}
	if snap.Settings.MinStayDays == 0 {
		snap.Settings.MinStayDays = deps.DefaultMinStay
	}
	deps.Cache.Put(key, snap)
	return snap, nil
}

type calendarDate struct {
	Date       booking.Date           `json:"date"`
	Status     calendar.BookingStatus `json:"status"`
	Selectable bool                   `json:"selectable"`
	Reason     string                 `json:"reason,omitempty"`
}

type calendarResponse struct {
	Start    booking.Date             `json:"start"`
	End      booking.Date             `json:"end"`
	Dates    []calendarDate           `json:"dates"`
	Settings calendar.GeneralSettings `json:"settings"`
}

// GET /api/v1/availability/calendar?start=&end=[&roomId=][&stage=departure&arrival=]
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	start, err := booking.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := booking.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !start.Before(end) {
		http.Error(w, "start must be before end", http.StatusBadRequest)
		return
	}

	stage := booking.StageArrival()
	if r.URL.Query().Get("stage") == "departure" {
		arrival, err := booking.ParseDate(r.URL.Query().Get("arrival"))
		if err != nil {
			http.Error(w, fmt.Sprintf("departure stage needs an arrival date: %v", err), http.StatusBadRequest)
			return
		}
		stage = booking.StageDeparture(arrival)
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	snap, err := LoadSnapshot(ctx, start, end)
	if err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}

	var room *booking.Room
	if roomID := r.URL.Query().Get("roomId"); roomID != "" {
		room, _ = snap.Room(roomID)
		if room == nil {
			http.Error(w, fmt.Sprintf("unknown room %q", roomID), http.StatusBadRequest)
			return
		}
	}

	eval := restriction.New(snap, Now())
	resp := calendarResponse{Start: start, End: end, Settings: snap.Settings}
	for _, d := range booking.DatesBetween(start, end) {
		c := eval.ClassifyDate(d, room, stage)
		resp.Dates = append(resp.Dates, calendarDate{
			Date:       d,
			Status:     c.Status,
			Selectable: c.Selectable,
			Reason:     c.Reason,
		})
	}

	logger.Debug().
		Str("window", snapcache.Key{Start: start, End: end}.String()).
		Int("dates", len(resp.Dates)).
		Msg("Calendar classified")
	apiutil.WriteJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	CheckIn   booking.Date `json:"checkIn"`
	CheckOut  booking.Date `json:"checkOut"`
	RoomID    string       `json:"roomId"`
	Adults    int          `json:"adults"`
	RoomCount int          `json:"roomCount"`
}

type validateResponse struct {
	Valid             bool                 `json:"valid"`
	Reason            string               `json:"reason,omitempty"`
	AlternativeRanges []gaps.Range         `json:"alternativeRanges,omitempty"`
	Capacity          *capacity.Resolution `json:"capacity,omitempty"`
}

// POST /api/v1/availability/validate
func HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RoomID == "" || req.Adults < 1 {
		http.Error(w, "roomId and adults are required", http.StatusBadRequest)
		return
	}
	if !req.CheckOut.After(req.CheckIn) {
		apiutil.WriteEngineError(w, r, booking.ValidationError{Reason: restriction.ReasonBadOrder})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	snap, err := LoadSnapshot(ctx, req.CheckIn, req.CheckOut)
	if err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}
	room, ok := snap.Room(req.RoomID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown room %q", req.RoomID), http.StatusBadRequest)
		return
	}

	eval := restriction.New(snap, Now())
	resp := validateResponse{Valid: true}
	if err := eval.ValidateStay(req.CheckIn, req.CheckOut, room); err != nil {
		resp.Valid = false
		resp.Reason = err.Error()
		// A stay rejected over booked nights may still fit around them.
		if hasPartialConflict(room, req.CheckIn, req.CheckOut) {
			resp.AlternativeRanges = gaps.Find(room, req.CheckIn, req.CheckOut, eval.EffectiveMinStay(req.CheckIn))
		}
	}

	nights := req.CheckIn.NightsUntil(req.CheckOut)
	resolution, err := capacity.Resolve(room, req.Adults, nights, snap.Rooms)
	if err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}
	if !resolution.Fits {
		resp.Capacity = &resolution
	}

	apiutil.WriteJSON(w, http.StatusOK, resp)
}

// hasPartialConflict reports whether some but not all nights of the window
// are booked for the room.
func hasPartialConflict(room *booking.Room, arrival, departure booking.Date) bool {
	booked := 0
	nights := booking.DatesBetween(arrival, departure)
	for _, d := range nights {
		if room.IsBooked(d) {
			booked++
		}
	}
	return booked > 0 && booked < len(nights)
}
