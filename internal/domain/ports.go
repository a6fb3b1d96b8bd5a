package domain

import (
	"context"
	"time"
)

// Geocoder resolves place names to coordinates and back.
type Geocoder interface {
	// Forward returns the highest-confidence match, ErrNotFound when the
	// service has none, ErrNetwork on transport or status failures.
	Forward(ctx context.Context, placeName string) (ParsedAddressResult, error)
	// Reverse never fails; it returns a placeholder address instead.
	Reverse(ctx context.Context, c Coordinate) string
}

// InventoryClient issues the radius search and returns the raw body.
type InventoryClient interface {
	Search(ctx context.Context, req SearchRequest) ([]byte, error)
}

// DeviceLocator is the "get current position" call.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PickerStore interface {
	Create(ctx context.Context, st PickerState) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (PickerState, error)
	// Update applies fn atomically; an error from fn aborts the write and
	// is returned as is.
	Update(ctx context.Context, id string, fn func(*PickerState) error) (PickerState, error)
}

type SearchLogRepository interface {
	RecordSearch(ctx context.Context, e SearchLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]SearchLogEntry, error)
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SessionSource exposes the signed-in user, or nil for anonymous callers.
type SessionSource interface {
	CurrentUser(ctx context.Context) *User
}

// Read model for the search log.
type SearchLogEntry struct {
	ID         int64       `json:"id"`
	UserID     *string     `json:"userId,omitempty"`
	StartPlace *string     `json:"startPlace,omitempty"`
	EndPlace   *string     `json:"endPlace,omitempty"`
	Midpoint   *Coordinate `json:"midpoint,omitempty"`
	Query      string      `json:"query"` // encoded handoff query
	State      string      `json:"state"`
	ErrorKind  *string     `json:"errorKind,omitempty"`
	HotelCount int         `json:"hotelCount"`
	CreatedAt  time.Time   `json:"createdAt"`
}
