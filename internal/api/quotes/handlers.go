// internal/api/quotes/handlers.go
package quotes

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/casaleverde/bookingengine/internal/api/apiutil"
	"github.com/casaleverde/bookingengine/internal/api/availability"
	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/engine/pricing"
	"github.com/casaleverde/bookingengine/internal/engine/restriction"
	"github.com/casaleverde/bookingengine/internal/upstream"
)

const quoteQueryTimeout = 15 * time.Second

// CatalogFetcher fetches the enhancement catalog for a stay.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, start, end booking.Date, roomID string) (*upstream.Catalog, error)
}

// VoucherValidator validates a promotional code.
type VoucherValidator interface {
	ValidateVoucher(ctx context.Context, code string) (*booking.Voucher, error)
}

// Deps are the collaborators the quote handlers need.
type Deps struct {
	Catalog  CatalogFetcher
	Vouchers VoucherValidator
}

var (
	deps     Deps
	depsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	depsOnce.Do(func() {
		deps = d
	})
}

type enhancementChoice struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity,omitempty"`
}

type quoteRequest struct {
	CheckIn      booking.Date        `json:"checkIn"`
	CheckOut     booking.Date        `json:"checkOut"`
	RoomID       string              `json:"roomId"`
	RateID       string              `json:"rateId"`
	Adults       int                 `json:"adults"`
	RoomCount    int                 `json:"roomCount"`
	ExtraBed     booking.ExtraBed    `json:"extraBed"`
	Enhancements []enhancementChoice `json:"enhancements,omitempty"`
	EventIDs     []string            `json:"eventIds,omitempty"`
	VoucherCode  string              `json:"voucherCode,omitempty"`
}

// POST /api/v1/quotes
func HandleCreateQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := log.Ctx(r.Context())

	var req quoteRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RoomID == "" || req.RateID == "" || req.Adults < 1 {
		http.Error(w, "roomId, rateId and adults are required", http.StatusBadRequest)
		return
	}
	if !req.CheckOut.After(req.CheckIn) {
		apiutil.WriteEngineError(w, r, booking.ValidationError{Reason: restriction.ReasonBadOrder})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), quoteQueryTimeout)
	defer cancel()

	snap, err := availability.LoadSnapshot(ctx, req.CheckIn, req.CheckOut)
	if err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}
	room, ok := snap.Room(req.RoomID)
	if !ok {
		apiutil.WriteEngineError(w, r, booking.ValidationError{Reason: fmt.Sprintf("unknown room %q", req.RoomID)})
		return
	}

	eval := restriction.New(snap, availability.Now())
	if err := eval.ValidateStay(req.CheckIn, req.CheckOut, room); err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}

	// The catalog fetch and the voucher check are independent single-shot
	// calls; run them concurrently.
	var (
		catalog *upstream.Catalog
		voucher *booking.Voucher
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(req.Enhancements) > 0 || len(req.EventIDs) > 0 {
		g.Go(func() error {
			var err error
			catalog, err = deps.Catalog.FetchCatalog(gctx, req.CheckIn, req.CheckOut, req.RoomID)
			return err
		})
	}
	if req.VoucherCode != "" {
		g.Go(func() error {
			var err error
			voucher, err = deps.Vouchers.ValidateVoucher(gctx, req.VoucherCode)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}

	sel := booking.BookingSelection{
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Adults:    req.Adults,
		RoomCount: req.RoomCount,
		RoomID:    req.RoomID,
		RateID:    req.RateID,
		ExtraBed:  req.ExtraBed,
	}
	if err := attachExtras(&sel, req, catalog); err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}

	quote, err := pricing.New(snap).BuildQuote(sel, voucher)
	if err != nil {
		apiutil.WriteEngineError(w, r, err)
		return
	}

	logger.Info().
		Str("quote_id", quote.ID).
		Str("room_id", quote.RoomID).
		Str("rate_id", quote.RateID).
		Float64("final_total", quote.FinalTotal).
		Msg("Quote built")
	apiutil.WriteJSON(w, http.StatusCreated, quote)
}

// attachExtras resolves the requested enhancement and event ids against the
// fetched catalog.
func attachExtras(sel *booking.BookingSelection, req quoteRequest, catalog *upstream.Catalog) error {
	if len(req.Enhancements) == 0 && len(req.EventIDs) == 0 {
		return nil
	}
	if catalog == nil {
		return booking.ValidationError{Reason: "enhancement catalog unavailable"}
	}

	byID := make(map[string]booking.Enhancement, len(catalog.Enhancements))
	for _, e := range catalog.Enhancements {
		byID[e.ID] = e
	}
	for _, choice := range req.Enhancements {
		enh, ok := byID[choice.ID]
		if !ok {
			return booking.ValidationError{Reason: fmt.Sprintf("enhancement %q is not available for this stay", choice.ID)}
		}
		sel.Enhancements = append(sel.Enhancements, booking.EnhancementSelection{
			Enhancement: enh,
			Quantity:    choice.Quantity,
		})
	}

	eventsByID := make(map[string]booking.Event, len(catalog.Events))
	for _, ev := range catalog.Events {
		eventsByID[ev.ID] = ev
	}
	for _, id := range req.EventIDs {
		ev, ok := eventsByID[id]
		if !ok {
			return booking.ValidationError{Reason: fmt.Sprintf("event %q is not available for this stay", id)}
		}
		sel.Events = append(sel.Events, ev)
	}
	return nil
}
