//go:build integration

package mysql_test

import (
	"context"
	"testing"
	"time"

	"midway_hotel/internal/domain"
	mysqlrepo "midway_hotel/internal/storage/mysql"
	"midway_hotel/internal/storage/mysql/mysqltest"
)

func pstr(s string) *string { return &s }

func TestRepo_MySQL_RecordAndList(t *testing.T) {
	db := mysqltest.Start(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ok := domain.SearchLogEntry{
		UserID:     pstr("u-1"),
		StartPlace: pstr("東京駅"),
		EndPlace:   pstr("渋谷駅"),
		Midpoint:   &domain.Coordinate{Lat: 35.5, Lon: 139.5},
		Query:      "midpointLat=35.5&midpointLon=139.5",
		State:      "ready",
		HotelCount: 12,
		CreatedAt:  base,
	}
	failed := domain.SearchLogEntry{
		StartPlace: pstr("Atlantis"),
		Query:      "",
		State:      "failed",
		ErrorKind:  pstr("not_found"),
		CreatedAt:  base.Add(time.Minute),
	}
	for _, e := range []domain.SearchLogEntry{ok, failed} {
		if err := repo.RecordSearch(ctx, e); err != nil {
			t.Fatalf("RecordSearch: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d", len(got))
	}

	// newest first
	if got[0].State != "failed" || got[0].ErrorKind == nil || *got[0].ErrorKind != "not_found" || got[0].UserID != nil || got[0].Midpoint != nil {
		t.Fatalf("unexpected newest entry: %+v", got[0])
	}
	e := got[1]
	if e.UserID == nil || *e.UserID != "u-1" || *e.StartPlace != "東京駅" || e.HotelCount != 12 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Midpoint == nil || *e.Midpoint != (domain.Coordinate{Lat: 35.5, Lon: 139.5}) || !e.CreatedAt.Equal(base) {
		t.Fatalf("unexpected entry: %+v", e)
	}

	if got, _ := repo.ListRecent(ctx, 1); len(got) != 1 {
		t.Fatalf("limit ignored: %d", len(got))
	}
}
