// Package upstream holds the single-shot HTTP clients for the availability,
// enhancement catalog and voucher validation services. No retries, no
// backoff; a failed call surfaces as an UpstreamFetchError and the caller
// decides what to do.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/casaleverde/bookingengine/internal/booking"
	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

const defaultTimeout = 10 * time.Second

// Client talks to the three upstream services.
type Client struct {
	httpClient      *http.Client
	availabilityURL string
	catalogURL      string
	voucherURL      string
	apiKey          string
}

// Config configures a Client.
type Config struct {
	AvailabilityURL string
	CatalogURL      string
	VoucherURL      string
	Timeout         time.Duration
	// APIKey is sent as a bearer token on every request when set.
	APIKey string
}

// New builds a client. A zero timeout uses the default.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		availabilityURL: strings.TrimRight(cfg.AvailabilityURL, "/"),
		catalogURL:      strings.TrimRight(cfg.CatalogURL, "/"),
		voucherURL:      strings.TrimRight(cfg.VoucherURL, "/"),
		apiKey:          cfg.APIKey,
	}
}

func (c *Client) newRequest(ctx context.Context, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// FetchSnapshot requests the availability calendar for a date window and
// parses it into a typed snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, start, end booking.Date) (*calendar.Snapshot, error) {
	reqURL := fmt.Sprintf("%s?start=%s&end=%s", c.availabilityURL, start, end)
	var raw calendar.RawSnapshot
	if err := c.getJSON(ctx, "availability", reqURL, &raw); err != nil {
		return nil, err
	}
	// The service may omit the window in the body; fall back to the request.
	if raw.StartDate == "" {
		raw.StartDate = start.String()
	}
	if raw.EndDate == "" {
		raw.EndDate = end.String()
	}
	snap, err := calendar.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("availability response: %w", err)
	}
	return snap, nil
}

// Catalog is the enhancement catalog response for a stay window.
type Catalog struct {
	Enhancements []booking.Enhancement `json:"enhancements"`
	Events       []booking.Event       `json:"events"`
}

// FetchCatalog requests the enhancements and events offered for a stay
// window and room. The weekday list of the stay is sent along so the service
// can filter WEEKLY availability windows.
func (c *Client) FetchCatalog(ctx context.Context, start, end booking.Date, roomID string) (*Catalog, error) {
	params := url.Values{}
	params.Set("start", start.String())
	params.Set("end", end.String())
	params.Set("roomId", roomID)
	// One entry per distinct weekday, in order of first occurrence.
	seen := make(map[time.Weekday]struct{}, 7)
	for _, d := range booking.DatesBetween(start, end) {
		wd := d.Weekday()
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		params.Add("weekday", strings.ToUpper(wd.String()))
	}
	var out Catalog
	if err := c.getJSON(ctx, "catalog", c.catalogURL+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type rawVoucher struct {
	Code            string   `json:"code"`
	Type            string   `json:"type"`
	DiscountPercent float64  `json:"discountPercent"`
	FixedAmount     float64  `json:"fixedAmount"`
	Products        []string `json:"products"`
}

// ValidateVoucher checks a voucher code. Unknown codes return
// booking.ErrVoucherNotFound.
func (c *Client) ValidateVoucher(ctx context.Context, code string) (*booking.Voucher, error) {
	reqURL := fmt.Sprintf("%s/%s", c.voucherURL, url.PathEscape(code))
	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, booking.UpstreamFetchError{Service: "voucher", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, booking.ErrVoucherNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, booking.UpstreamFetchError{Service: "voucher", Status: resp.StatusCode}
	}

	var raw rawVoucher
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("voucher response: %w", err)
	}
	voucher := &booking.Voucher{
		Code:            raw.Code,
		Type:            booking.VoucherType(raw.Type),
		DiscountPercent: raw.DiscountPercent,
		FixedAmount:     raw.FixedAmount,
		Products:        raw.Products,
	}
	if voucher.Code == "" {
		voucher.Code = code
	}
	return voucher, nil
}

func (c *Client) getJSON(ctx context.Context, service, reqURL string, dst any) error {
	req, err := c.newRequest(ctx, reqURL)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("service", service).Msg("Upstream request failed")
		return booking.UpstreamFetchError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Ctx(ctx).Warn().Int("status", resp.StatusCode).Str("service", service).Msg("Upstream returned error status")
		return booking.UpstreamFetchError{Service: service, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s response: %w", service, err)
	}
	return nil
}
