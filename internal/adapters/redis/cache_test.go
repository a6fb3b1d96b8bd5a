package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "midway_hotel/internal/adapters/redis"
	"midway_hotel/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCache(redisad.NewClient(mr.Addr(), "", 0), "midway:")
	ctx := context.Background()

	var got []domain.Hotel
	if ok, err := c.Get(ctx, "results:x", &got); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	in := []domain.Hotel{{ID: "1", Name: "ホテル", ReviewAverage: 4.5, Rooms: []domain.RoomInfo{{RoomName: "ツイン", PriceAmount: 9800}}}}
	if err := c.Set(ctx, "results:x", in, 60); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("midway:results:x") {
		t.Fatalf("key not prefixed: %v", mr.Keys())
	}
	if ttl := mr.TTL("midway:results:x"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	ok, err := c.Get(ctx, "results:x", &got)
	if !ok || err != nil || len(got) != 1 || got[0].Rooms[0].PriceAmount != 9800 {
		t.Fatalf("hit: ok=%v err=%v got=%+v", ok, err, got)
	}

	if err := c.Del(ctx, "results:x"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.Get(ctx, "results:x", &got); ok {
		t.Fatal("key survived Del")
	}
}

func TestCache_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.NewCache(redisad.NewClient(mr.Addr(), "", 0), "")
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 1)
	mr.FastForward(2 * time.Second)

	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatal("expired key still served")
	}
}
