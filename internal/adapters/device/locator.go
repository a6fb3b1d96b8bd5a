// Package device adapts client-reported positions to domain.DeviceLocator.
package device

import (
	"context"
	"fmt"
	"strconv"

	"midway_hotel/internal/domain"
)

// Fixed is a position reported by the client with the request. A nil
// Fixed answers ErrLocationUnavailable, like a device that refused.
type Fixed struct {
	c *domain.Coordinate
}

func NewFixed(c *domain.Coordinate) *Fixed { return &Fixed{c: c} }

// FromStrings parses client-reported lat/lon. Absent values yield an
// unavailable locator; malformed ones are a validation error.
func FromStrings(lat, lon string) (*Fixed, error) {
	if lat == "" && lon == "" {
		return NewFixed(nil), nil
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lon, 64)
	if err1 != nil || err2 != nil {
		return nil, &domain.ValidationError{Fields: []string{"lat", "lon"}, Err: fmt.Errorf("bad position %q,%q", lat, lon)}
	}
	c := domain.Coordinate{Lat: la, Lon: lo}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewFixed(&c), nil
}

func (f *Fixed) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	if f == nil || f.c == nil {
		return domain.Coordinate{}, domain.ErrLocationUnavailable
	}
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	return *f.c, nil
}
