package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultRadiusKm is the inventory search radius; 3.0 is also the
	// largest radius the inventory service accepts.
	DefaultRadiusKm = 3.0
	MaxRadiusKm     = 3.0

	DateLayout = "2006-01-02"
)

// FallbackCoordinate is used by the results view when the handoff query
// carries no usable midpoint (Naha, Okinawa).
var FallbackCoordinate = Coordinate{Lat: 26.1959836, Lon: 127.6766333}

type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomDouble RoomType = "double"
	RoomTwin   RoomType = "twin"
	RoomSuite  RoomType = "suite"
)

// SearchOptions are the optional filters of a search form. Zero values
// mean "not set".
type SearchOptions struct {
	PriceRange     *string   `json:"priceRange,omitempty"`
	StarRating     int       `json:"starRating,omitempty" validate:"omitempty,min=1,max=5"`
	Amenities      []string  `json:"amenities,omitempty"`
	NumberOfGuests int       `json:"numberOfGuests,omitempty" validate:"omitempty,min=1,max=99"`
	RoomType       RoomType  `json:"roomType,omitempty" validate:"omitempty,oneof=single double twin suite"`
	CheckIn        time.Time `json:"checkInDate,omitempty"`
	CheckOut       time.Time `json:"checkOutDate,omitempty"`
}

// AmenitySet lowercases, trims, dedupes and sorts the amenities.
func (o SearchOptions) AmenitySet() []string {
	seen := make(map[string]struct{}, len(o.Amenities))
	out := make([]string, 0, len(o.Amenities))
	for _, a := range o.Amenities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

type SearchRequest struct {
	Midpoint Coordinate     `json:"midpoint"`
	RadiusKm float64        `json:"radiusKm"`
	CheckIn  time.Time      `json:"checkInDate"`
	CheckOut time.Time      `json:"checkOutDate"`
	Options  *SearchOptions `json:"options,omitempty"`
}

// Query parameter names used across the navigation boundary.
const (
	qMidLat   = "midpointLat"
	qMidLon   = "midpointLon"
	qRadius   = "radius"
	qCheckIn  = "checkinDate"
	qCheckOut = "checkoutDate"
	qPrice    = "priceRange"
	qStars    = "starRating"
	qAmenity  = "amenity"
	qGuests   = "guests"
	qRoomType = "roomType"
)

// EncodeRequest serializes the whole request, options included.
func EncodeRequest(r SearchRequest) url.Values {
	v := url.Values{}
	v.Set(qMidLat, strconv.FormatFloat(r.Midpoint.Lat, 'f', -1, 64))
	v.Set(qMidLon, strconv.FormatFloat(r.Midpoint.Lon, 'f', -1, 64))
	if r.RadiusKm > 0 {
		v.Set(qRadius, strconv.FormatFloat(r.RadiusKm, 'f', -1, 64))
	}
	if !r.CheckIn.IsZero() {
		v.Set(qCheckIn, r.CheckIn.Format(DateLayout))
	}
	if !r.CheckOut.IsZero() {
		v.Set(qCheckOut, r.CheckOut.Format(DateLayout))
	}
	if o := r.Options; o != nil {
		if o.PriceRange != nil && *o.PriceRange != "" {
			v.Set(qPrice, *o.PriceRange)
		}
		if o.StarRating > 0 {
			v.Set(qStars, strconv.Itoa(o.StarRating))
		}
		for _, a := range o.AmenitySet() {
			v.Add(qAmenity, a)
		}
		if o.NumberOfGuests > 0 {
			v.Set(qGuests, strconv.Itoa(o.NumberOfGuests))
		}
		if o.RoomType != "" {
			v.Set(qRoomType, string(o.RoomType))
		}
	}
	return v
}

// DecodeRequest is the results view's only input: a pure function of the
// query and the caller's notion of "today". It never fails; unusable
// values fall back to defaults.
func DecodeRequest(v url.Values, now time.Time) SearchRequest {
	r := SearchRequest{Midpoint: FallbackCoordinate, RadiusKm: DefaultRadiusKm}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(v.Get(qMidLat)), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(v.Get(qMidLon)), 64)
	if errLat == nil && errLon == nil {
		if c := (Coordinate{Lat: lat, Lon: lon}); c.Validate() == nil {
			r.Midpoint = c
		}
	}

	if rad, err := strconv.ParseFloat(v.Get(qRadius), 64); err == nil && rad > 0 && rad <= MaxRadiusKm {
		r.RadiusKm = rad
	}

	today := truncateDay(now)
	r.CheckIn = today
	if d, err := time.ParseInLocation(DateLayout, v.Get(qCheckIn), today.Location()); err == nil {
		r.CheckIn = d
	}
	r.CheckOut = r.CheckIn.AddDate(0, 0, 1)
	if d, err := time.ParseInLocation(DateLayout, v.Get(qCheckOut), today.Location()); err == nil && d.After(r.CheckIn) {
		r.CheckOut = d
	}

	var o SearchOptions
	set := false
	if p := strings.TrimSpace(v.Get(qPrice)); p != "" {
		o.PriceRange = &p
		set = true
	}
	if n, err := strconv.Atoi(v.Get(qStars)); err == nil && n >= 1 && n <= 5 {
		o.StarRating = n
		set = true
	}
	if as := v[qAmenity]; len(as) > 0 {
		o.Amenities = as
		o.Amenities = o.AmenitySet()
		set = true
	}
	if n, err := strconv.Atoi(v.Get(qGuests)); err == nil && n >= 1 {
		o.NumberOfGuests = n
		set = true
	}
	switch rt := RoomType(v.Get(qRoomType)); rt {
	case RoomSingle, RoomDouble, RoomTwin, RoomSuite:
		o.RoomType = rt
		set = true
	}
	if set {
		o.CheckIn, o.CheckOut = r.CheckIn, r.CheckOut
		r.Options = &o
	}
	return r
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
