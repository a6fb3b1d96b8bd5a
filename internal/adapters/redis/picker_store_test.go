package redisad_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "midway_hotel/internal/adapters/redis"
	"midway_hotel/internal/domain"
)

func newStore(t *testing.T) (*redisad.PickerStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.NewPickerStore(redisad.NewClient(mr.Addr(), "", 0), time.Hour), mr
}

func TestPickerStore_CreateGet(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	st := domain.PickerState{ID: "p1", Zoom: domain.DefaultZoom, Lang: "ja"}
	st.MoveMarker(domain.Coordinate{Lat: 26.2, Lon: 127.7})
	if err := s.Create(ctx, st); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, st); err == nil {
		t.Fatal("duplicate create succeeded")
	}
	if ttl := mr.TTL("picker:p1"); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Generation != 1 || got.Marker == nil || *got.Marker != *st.Marker {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPickerStore_UpdateAbortKeepsState(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_ = s.Create(ctx, domain.PickerState{ID: "p1", Label: "before"})

	out, err := s.Update(ctx, "p1", func(p *domain.PickerState) error {
		p.Label = "after"
		return domain.ErrStale
	})
	if !errors.Is(err, domain.ErrStale) || out.Label != "before" {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	got, _ := s.Get(ctx, "p1")
	if got.Label != "before" {
		t.Fatalf("aborted update was written: %+v", got)
	}
}

func TestPickerStore_ConcurrentUpdatesAllApply(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_ = s.Create(ctx, domain.PickerState{ID: "p1"})

	const n = 4
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, "p1", func(p *domain.PickerState) error {
				p.MoveMarker(domain.Coordinate{Lat: float64(i), Lon: 0})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	got, _ := s.Get(ctx, "p1")
	if got.Generation != n {
		t.Fatalf("generation = %d, want %d (lost update)", got.Generation, n)
	}
}

func TestPickerStore_UpdateMissing(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Update(context.Background(), "nope", func(*domain.PickerState) error { return nil })
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
