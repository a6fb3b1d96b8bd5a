package app_test

import (
	"errors"
	"os"
	"testing"

	"midway_hotel/internal/app"
	"midway_hotel/internal/domain"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/vacant_hotels.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return b
}

func TestParseHotels_Fixture(t *testing.T) {
	hotels, err := app.ParseHotels(loadFixture(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hotels) != 3 {
		t.Fatalf("hotels = %d, want 3", len(hotels))
	}

	h := hotels[0]
	if h.ID != "74944" || h.Name != "Tokyo　Hotel！" {
		t.Fatalf("parser must not normalize names: %+v", h)
	}
	if h.Address != "東京都 渋谷区道玄坂1-2-3" || h.MinPrice != 12800 || h.ReviewAverage != 4.6 || h.ReviewCount != 1204 {
		t.Fatalf("basic info mismatch: %+v", h)
	}
	if len(h.Rooms) != 2 {
		t.Fatalf("rooms = %+v", h.Rooms)
	}
	if r := h.Rooms[0]; r.RoomName != "スタンダードツイン" || r.PlanName != "素泊まり" || r.PriceAmount != 12800 || r.ReservationURL != "https://example.invalid/reserve/1" {
		t.Fatalf("room[0] = %+v", r)
	}
	if r := h.Rooms[1]; r.RoomName != "シングル" || r.PriceAmount != 9800 {
		t.Fatalf("split room not merged: %+v", r)
	}
}

func TestParseHotels_MissingLeavesDefault(t *testing.T) {
	hotels, err := app.ParseHotels(loadFixture(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := hotels[1]
	if h.ReviewCount != 0 || h.ImageURL != "" || h.SpecialNote != "" {
		t.Fatalf("missing leaves should default: %+v", h)
	}
	if h.ID != "13001" || h.MinPrice != 8000 || h.ReviewAverage != 2.5 || h.Address != "東京都 港区赤坂" {
		t.Fatalf("present leaves should parse: %+v", h)
	}
	if h.Rooms == nil || len(h.Rooms) != 0 {
		t.Fatalf("expected empty, non-nil rooms, got %#v", h.Rooms)
	}

	if hotels[2].ID != "" || hotels[2].Address != "" || len(hotels[2].Rooms) != 1 {
		t.Fatalf("third hotel: %+v", hotels[2])
	}
}

func TestParseHotels_OutOfRangeNumbersDefault(t *testing.T) {
	body := `<root><hotels><hotel><hotelBasicInfo>
		<hotelNo>1</hotelNo>
		<hotelMinCharge>1e30</hotelMinCharge>
		<reviewCount>-9.9e18</reviewCount>
	</hotelBasicInfo><roomInfo><dailyCharge><rakutenCharge>７，８００．０</rakutenCharge></dailyCharge></roomInfo></hotel></hotels></root>`
	hotels, err := app.ParseHotels([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(hotels) != 1 {
		t.Fatalf("hotels = %+v", hotels)
	}
	h := hotels[0]
	if h.MinPrice != 0 || h.ReviewCount != 0 {
		t.Fatalf("out-of-range leaves should default to 0: %+v", h)
	}
	if len(h.Rooms) != 1 || h.Rooms[0].PriceAmount != 7800 {
		t.Fatalf("in-range float leaf should parse: %+v", h.Rooms)
	}
}

func TestParseHotels_Empty(t *testing.T) {
	for _, body := range []string{
		`<root><pagingInfo><recordCount>0</recordCount></pagingInfo><hotels/></root>`,
		`<root><error>not_found</error><error_description>data not found</error_description></root>`,
	} {
		hotels, err := app.ParseHotels([]byte(body))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if hotels == nil || len(hotels) != 0 {
			t.Fatalf("expected empty slice, got %#v", hotels)
		}
	}
}

func TestParseHotels_Malformed(t *testing.T) {
	for _, body := range []string{
		`{"hotels": []}`,
		`<root><hotels><hotel></hotels></root>`,
		`<root><error>wrong_parameter</error><error_description>latitude invalid</error_description></root>`,
	} {
		_, err := app.ParseHotels([]byte(body))
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}
