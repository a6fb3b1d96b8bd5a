package app_test

import (
	"context"
	"testing"
	"time"

	"midway_hotel/internal/app"
	"midway_hotel/internal/domain"
)

func TestBatch_KeepsInputOrder(t *testing.T) {
	geo := stations()
	geo.places["Naha Airport"] = place("那覇空港", 26.2, 127.65)
	inv := &fakeInventory{body: loadFixture(t)}
	o := app.NewOrchestrator(app.Deps{Geocoder: geo, Inventory: inv, Now: fixedNow})

	items := []app.BatchItem{
		{Start: "Tokyo Station", End: "Shibuya Station"},
		{Start: "Tokyo Station", End: "Atlantis"},
		{Start: "Naha Airport", End: "Naha Airport"},
	}
	out, err := app.NewBatchService(o, 2, false).Run(context.Background(), items, "ja")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("results = %d", len(out))
	}
	for i, r := range out {
		if r.Item != items[i] {
			t.Fatalf("result %d is for %+v", i, r.Item)
		}
	}
	if out[0].Search.State != app.StateReady || out[1].Search.ErrorKind != "not_found" || out[2].Search.State != app.StateReady {
		t.Fatalf("states: %s %s %s", out[0].Search.State, out[1].Search.ErrorKind, out[2].Search.State)
	}
	if inv.calls != 2 {
		t.Fatalf("inventory calls = %d", inv.calls)
	}
}

func TestBatch_RefreshEvictsCachedResults(t *testing.T) {
	inv := &fakeInventory{body: loadFixture(t)}
	cache := &fakeCache{}
	o := app.NewOrchestrator(app.Deps{Geocoder: stations(), Inventory: inv, Cache: cache, CacheTTL: time.Minute, Now: fixedNow})
	items := []app.BatchItem{{Start: "Tokyo Station", End: "Shibuya Station"}}

	if _, err := app.NewBatchService(o, 1, false).Run(context.Background(), items, "ja"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.NewBatchService(o, 1, false).Run(context.Background(), items, "ja"); err != nil {
		t.Fatal(err)
	}
	if inv.calls != 1 {
		t.Fatalf("cached run hit inventory: %d", inv.calls)
	}

	if _, err := app.NewBatchService(o, 1, true).Run(context.Background(), items, "ja"); err != nil {
		t.Fatal(err)
	}
	if inv.calls != 2 || len(cache.dels) != 1 {
		t.Fatalf("calls=%d dels=%v", inv.calls, cache.dels)
	}
	if want := domain.EncodeRequest(inv.last).Encode(); cache.dels[0] != "results:"+want {
		t.Fatalf("evicted %q", cache.dels[0])
	}
}
