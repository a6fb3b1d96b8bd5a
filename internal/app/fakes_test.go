package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"midway_hotel/internal/domain"
)

// ---- fakes ----

type fakeGeocoder struct {
	mu       sync.Mutex
	places   map[string]domain.ParsedAddressResult
	errs     map[string]error
	address  string
	reverse  func(domain.Coordinate) string
	forwards int
	reverses int

	// block, when set, holds every Reverse call until closed
	block chan struct{}
}

func (g *fakeGeocoder) Forward(ctx context.Context, q string) (domain.ParsedAddressResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forwards++
	if err, ok := g.errs[q]; ok {
		return domain.ParsedAddressResult{}, err
	}
	r, ok := g.places[q]
	if !ok {
		return domain.ParsedAddressResult{}, domain.ErrNotFound
	}
	return r, nil
}

func (g *fakeGeocoder) Reverse(ctx context.Context, c domain.Coordinate) string {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverses++
	if g.reverse != nil {
		return g.reverse(c)
	}
	if g.address == "" {
		return domain.AddressUnavailable
	}
	return g.address
}

func (g *fakeGeocoder) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.forwards, g.reverses
}

type fakeInventory struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls int
	last  domain.SearchRequest
}

func (f *fakeInventory) Search(ctx context.Context, req domain.SearchRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.body, f.err
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeLocator struct {
	c   domain.Coordinate
	err error
}

func (l fakeLocator) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	return l.c, l.err
}

type fakeSearchLog struct {
	mu      sync.Mutex
	entries []domain.SearchLogEntry
}

func (r *fakeSearchLog) RecordSearch(ctx context.Context, e domain.SearchLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeSearchLog) ListRecent(ctx context.Context, limit int) ([]domain.SearchLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return append([]domain.SearchLogEntry(nil), r.entries[:limit]...), nil
}

type fakeSession struct{ u *domain.User }

func (s fakeSession) CurrentUser(ctx context.Context) *domain.User { return s.u }

func place(addr string, lat, lon float64) domain.ParsedAddressResult {
	return domain.ParsedAddressResult{Coordinate: domain.Coordinate{Lat: lat, Lon: lon}, DisplayAddress: addr}
}

// rendezvousGeocoder holds each Forward until want calls are in flight at
// once, then delegates. A lone caller gives up after wait.
type rendezvousGeocoder struct {
	*fakeGeocoder
	want int
	wait time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	all      chan struct{}
}

func newRendezvous(g *fakeGeocoder, want int) *rendezvousGeocoder {
	return &rendezvousGeocoder{fakeGeocoder: g, want: want, wait: 2 * time.Second, all: make(chan struct{})}
}

func (r *rendezvousGeocoder) Forward(ctx context.Context, q string) (domain.ParsedAddressResult, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	if r.peak == r.want {
		select {
		case <-r.all:
		default:
			close(r.all)
		}
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	select {
	case <-r.all:
		return r.fakeGeocoder.Forward(ctx, q)
	case <-ctx.Done():
		return domain.ParsedAddressResult{}, ctx.Err()
	case <-time.After(r.wait):
		return domain.ParsedAddressResult{}, fmt.Errorf("%w: %q ran alone", domain.ErrNetwork, q)
	}
}

func (r *rendezvousGeocoder) maxInFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}
