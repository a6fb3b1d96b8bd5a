// internal/adapters/rakuten/client.go
package rakuten

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/domain"
)

const (
	service  = "rakuten"
	endpoint = "vacant_hotel_search"

	// DefaultBase is the VacantHotelSearch endpoint, version 2017-04-26.
	DefaultBase = "https://app.rakuten.co.jp/services/api/Travel/VacantHotelSearch/20170426"

	maxBody = 8 << 20
)

type Client struct {
	base    string
	appID   string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
}

// New never fails: a missing application id is reported by Search, so the
// rest of the service can run without inventory credentials.
func New(base, appID string, rps int, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBase
	}
	if rps <= 0 {
		rps = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:    base,
		appID:   appID,
		hc:      &http.Client{},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
	}
}

// Search runs one radius search and returns the raw XML body untouched.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]byte, error) {
	if c.appID == "" {
		return nil, fmt.Errorf("%w: inventory application id is not set", domain.ErrConfig)
	}
	params, err := Params(req)
	if err != nil {
		return nil, err
	}
	params.Set("applicationId", c.appID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rl.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", domain.ErrNetwork, err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", domain.ErrNetwork, err)
	}
	hreq.Header.Set("Accept", "application/xml")
	hreq.Header.Set("User-Agent", "midway-hotel/1.0")

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%w: inventory: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: inventory: read body: %v", domain.ErrNetwork, err)
	}
	return body, nil
}

// Params builds every query parameter except the credential.
func Params(req domain.SearchRequest) (url.Values, error) {
	if err := req.Midpoint.Validate(); err != nil {
		return nil, err
	}
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return nil, &domain.ValidationError{Fields: []string{"checkInDate", "checkOutDate"}, Err: errors.New("stay dates are required")}
	}
	if !req.CheckOut.After(req.CheckIn) {
		return nil, &domain.ValidationError{Fields: []string{"checkOutDate"}, Err: errors.New("check-out must be after check-in")}
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = domain.DefaultRadiusKm
	}
	if radius > domain.MaxRadiusKm {
		radius = domain.MaxRadiusKm
	}

	p := url.Values{}
	p.Set("format", "xml")
	p.Set("datumType", "1") // WGS84, decimal degrees
	p.Set("latitude", strconv.FormatFloat(req.Midpoint.Lat, 'f', -1, 64))
	p.Set("longitude", strconv.FormatFloat(req.Midpoint.Lon, 'f', -1, 64))
	p.Set("searchRadius", strconv.FormatFloat(radius, 'f', 1, 64))
	p.Set("checkinDate", req.CheckIn.Format(domain.DateLayout))
	p.Set("checkoutDate", req.CheckOut.Format(domain.DateLayout))

	if o := req.Options; o != nil {
		if o.PriceRange != nil {
			lo, hi := ParsePriceRange(*o.PriceRange)
			if lo > 0 {
				p.Set("minCharge", strconv.Itoa(lo))
			}
			if hi > 0 {
				p.Set("maxCharge", strconv.Itoa(hi))
			}
		}
		if o.NumberOfGuests > 0 {
			p.Set("adultNum", strconv.Itoa(o.NumberOfGuests))
		}
		if sq := squeezeConditions(o.AmenitySet()); sq != "" {
			p.Set("squeezeCondition", sq)
		}
	}
	return p, nil
}
