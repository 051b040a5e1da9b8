package booking

// PaymentStructure selects how a rate policy collects payment.
type PaymentStructure string

const (
	PaymentFull  PaymentStructure = "FULL"
	PaymentSplit PaymentStructure = "SPLIT"
)

// PricingType selects how an enhancement price is multiplied.
type PricingType string

const (
	PerGuest   PricingType = "PER_GUEST"
	PerDay     PricingType = "PER_DAY"
	PerBooking PricingType = "PER_BOOKING"
)

// VoucherType classifies a validated voucher.
type VoucherType string

const (
	VoucherDiscount VoucherType = "DISCOUNT"
	VoucherFixed    VoucherType = "FIXED"
	VoucherProduct  VoucherType = "PRODUCT"
)

// Room is a bookable unit. Prices are tax-inclusive euros.
type Room struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	NightlyPrice            float64 `json:"nightlyPrice"`
	Capacity                int     `json:"capacity"`
	AllowsExtraBed          bool    `json:"allowsExtraBed"`
	MaxCapacityWithExtraBed int     `json:"maxCapacityWithExtraBed"`
	ExtraBedPrice           float64 `json:"extraBedPrice"`
	// PriceOverrides are room-level per-date prices, below rate-level
	// sources in priority.
	PriceOverrides map[Date]float64  `json:"priceOverrides,omitempty"`
	BookedDates    map[Date]struct{} `json:"bookedDates,omitempty"`
	Rates          []RoomRate        `json:"rates,omitempty"`
}

// IsBooked reports whether the room has the given night taken.
func (r *Room) IsBooked(d Date) bool {
	_, ok := r.BookedDates[d]
	return ok
}

// RateLink returns the active association with the given rate policy.
func (r *Room) RateLink(rateID string) (RoomRate, bool) {
	for _, link := range r.Rates {
		if link.RateID == rateID && link.Active {
			return link, true
		}
	}
	return RoomRate{}, false
}

// RatePolicy is a named pricing and cancellation plan attachable to rooms.
type RatePolicy struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	BasePrice         float64          `json:"basePrice"`
	AdjustmentPercent float64          `json:"adjustmentPercentage"`
	PrepayPercent     float64          `json:"prepayPercentage"`
	Payment           PaymentStructure `json:"paymentStructure"`
	Refundable        bool             `json:"refundable"`
	CancellationDays  int              `json:"cancellationDays"`
	ChangeDays        int              `json:"changeDays"`
	RebookDays        int              `json:"rebookDays"`
	Active            bool             `json:"isActive"`
}

// RoomRate associates a room with a rate policy.
type RoomRate struct {
	RoomID            string  `json:"roomId"`
	RateID            string  `json:"rateId"`
	PercentAdjustment float64 `json:"percentageAdjustment"`
	Active            bool    `json:"isActive"`
}

// RateDatePrice is an explicit per-date price for a room+rate pair, the
// highest-priority price source.
type RateDatePrice struct {
	RateID string  `json:"rateId"`
	RoomID string  `json:"roomId"`
	Date   Date    `json:"date"`
	Price  float64 `json:"price"`
	Active bool    `json:"isActive"`
}

// Enhancement is an optional extra sold alongside a stay.
type Enhancement struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Pricing     PricingType `json:"pricingType"`
	Price       float64     `json:"price"`
	MaxQuantity int         `json:"maxQuantity,omitempty"` // 0 means unlimited
}

// Event is an enhancement tied to a fixed date, priced per attendee.
type Event struct {
	Enhancement
	EventDate        Date `json:"eventDate"`
	PlannedAttendees int  `json:"plannedAttendees"`
}

// Voucher is a validated promotional code.
type Voucher struct {
	Code            string      `json:"code"`
	Type            VoucherType `json:"type"`
	DiscountPercent float64     `json:"discountPercent,omitempty"`
	FixedAmount     float64     `json:"fixedAmount,omitempty"`
	Products        []string    `json:"products,omitempty"`
}

// ExtraBed records the extra-bed choice on a selection.
type ExtraBed struct {
	Enabled bool `json:"enabled"`
	Count   int  `json:"count"`
}

// EnhancementSelection is a chosen enhancement. Quantity zero means "use the
// default" (the adult count for per-guest pricing).
type EnhancementSelection struct {
	Enhancement
	Quantity int `json:"quantity,omitempty"`
}

// BookingSelection is the guest's draft, owned and mutated by the caller
// between recomputations. The engines read it and never write to it.
type BookingSelection struct {
	CheckIn      Date                   `json:"checkIn"`
	CheckOut     Date                   `json:"checkOut"`
	Adults       int                    `json:"adults"`
	RoomCount    int                    `json:"roomCount"`
	RoomID       string                 `json:"roomId"`
	RateID       string                 `json:"rateId"`
	Enhancements []EnhancementSelection `json:"enhancements,omitempty"`
	Events       []Event                `json:"events,omitempty"`
	ExtraBed     ExtraBed               `json:"extraBed"`
}

// Nights returns the stay length in nights.
func (s BookingSelection) Nights() int {
	return s.CheckIn.NightsUntil(s.CheckOut)
}
