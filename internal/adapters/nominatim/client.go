// internal/adapters/nominatim/client.go
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/domain"
)

const service = "nominatim"

type Client struct {
	base    string
	ua      string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
}

// New builds a client for a Nominatim-compatible endpoint. The public
// instance asks for at most one request per second and a real User-Agent.
func New(base, userAgent string, rps int, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "midway-hotel/1.0"
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		ua:      userAgent,
		hc:      &http.Client{},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
	}
}

// ---- payloads ----

type address struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Suburb       string `json:"suburb"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Address     address `json:"address"`
}

type reverseResponse struct {
	place
	Error string `json:"error"`
}

func pickCity(a address) string {
	for _, s := range []string{a.City, a.Town, a.Village, a.Municipality} {
		if s != "" {
			return s
		}
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// formatAddress renders "road city country".
func formatAddress(a address) string {
	return joinNonEmpty(a.Road, pickCity(a), a.Country)
}

// ---- Public API ----

// Forward resolves a free-text place name to its first match.
func (c *Client) Forward(ctx context.Context, placeName string) (domain.ParsedAddressResult, error) {
	q := strings.TrimSpace(placeName)
	if q == "" {
		return domain.ParsedAddressResult{}, &domain.ValidationError{Fields: []string{"q"}, Err: errors.New("empty place name")}
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	var out []place
	if err := c.get(ctx, "search", "/search?"+params.Encode(), &out); err != nil {
		return domain.ParsedAddressResult{}, err
	}
	if len(out) == 0 {
		return domain.ParsedAddressResult{}, fmt.Errorf("%w: no match for %q", domain.ErrNotFound, q)
	}

	first := out[0]
	lat, errLat := strconv.ParseFloat(first.Lat, 64)
	lon, errLon := strconv.ParseFloat(first.Lon, 64)
	coord := domain.Coordinate{Lat: lat, Lon: lon}
	if errLat != nil || errLon != nil || coord.Validate() != nil {
		return domain.ParsedAddressResult{}, fmt.Errorf("%w: nominatim search: bad coordinate %q,%q", domain.ErrNetwork, first.Lat, first.Lon)
	}

	display := first.DisplayName
	if display == "" {
		display = formatAddress(first.Address)
	}
	return domain.ParsedAddressResult{Coordinate: coord, DisplayAddress: display}, nil
}

// Reverse is best-effort: every failure degrades to domain.AddressUnavailable.
func (c *Client) Reverse(ctx context.Context, coord domain.Coordinate) string {
	if coord.Validate() != nil {
		return domain.AddressUnavailable
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	params.Set("format", "json")

	var out reverseResponse
	if err := c.get(ctx, "reverse", "/reverse?"+params.Encode(), &out); err != nil {
		log.Debug().Err(err).Str("coord", coord.String()).Msg("reverse geocode failed")
		return domain.AddressUnavailable
	}
	if out.Error != "" {
		log.Debug().Str("coord", coord.String()).Str("reason", out.Error).Msg("reverse geocode returned no address")
		return domain.AddressUnavailable
	}
	if s := formatAddress(out.Address); s != "" {
		return s
	}
	if out.DisplayName != "" {
		return out.DisplayName
	}
	return domain.AddressUnavailable
}

// ---- Internals ----

// get performs one rate-limited, time-bounded GET and decodes JSON into
// out. Nothing is retried: every failure maps to domain.ErrNetwork.
func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: nominatim %s: %v", domain.ErrNetwork, endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("%w: nominatim %s: %v", domain.ErrNetwork, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "ja,en")
	req.Header.Set("User-Agent", c.ua)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		return fmt.Errorf("%w: nominatim %s: %v", domain.ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: nominatim %s: bad status %d: %s", domain.ErrNetwork, endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: nominatim %s: decode: %v", domain.ErrNetwork, endpoint, err)
	}
	return nil
}
