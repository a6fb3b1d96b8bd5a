package domain

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Fields: []string{"lat"}, Err: fmt.Errorf("latitude %v out of range", c.Lat)}
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Fields: []string{"lon"}, Err: fmt.Errorf("longitude %v out of range", c.Lon)}
	}
	return nil
}

func (c Coordinate) String() string { return fmt.Sprintf("%.7f,%.7f", c.Lat, c.Lon) }

// Midpoint is the per-axis arithmetic mean of a and b. Planar: not valid
// across the anti-meridian or near the poles.
func Midpoint(a, b Coordinate) Coordinate {
	return Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lon: (a.Lon + b.Lon) / 2,
	}
}

// ParsedAddressResult is what both geocoding directions hand back.
type ParsedAddressResult struct {
	Coordinate     Coordinate `json:"coordinate"`
	DisplayAddress string     `json:"displayAddress"`
}

// AddressUnavailable is what reverse geocoding yields when it cannot
// produce an address; callers may localize it.
const AddressUnavailable = "address unavailable"
