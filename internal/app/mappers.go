package app

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/width"

	"midway_hotel/internal/domain"
	"midway_hotel/internal/xmltree"
)

/********** alias registries (single source of truth) **********/

var hotelAliases = map[string][]string{
	"id":             {"hotelNo", "hotelId"},
	"name":           {"hotelName"},
	"image":          {"hotelImageUrl", "hotelThumbnailUrl"},
	"address1":       {"address1"},
	"address2":       {"address2"},
	"min_price":      {"hotelMinCharge"},
	"special":        {"hotelSpecial"},
	"review_average": {"reviewAverage"},
	"review_count":   {"reviewCount"},
}

var roomAliases = map[string][]string{
	"room_name":   {"roomBasicInfo.roomName", "roomName"},
	"plan_name":   {"roomBasicInfo.planName", "planName"},
	"charge":      {"dailyCharge.rakutenCharge", "rakutenCharge", "dailyCharge.total", "total"},
	"reserve_url": {"roomBasicInfo.reserveUrl", "reserveUrl"},
}

/********** tiny helpers **********/

// intFlexible reads "12,800", "１２８００", "¥12800" or "12800.0"; 0 otherwise.
func intFlexible(field, s string) int {
	s = cleanNumber(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= math.MinInt32 && f <= math.MaxInt32 {
		return int(f)
	}
	log.Debug().Str("context", "ParseHotels").Str("field", field).Str("value", s).Msg("unparseable integer leaf")
	return 0
}

func floatFlexible(field, s string) float64 {
	s = cleanNumber(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Debug().Str("context", "ParseHotels").Str("field", field).Str("value", s).Msg("unparseable float leaf")
		return 0
	}
	return f
}

func cleanNumber(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	return strings.NewReplacer(",", "", "¥", "", "\\", "", "円", "", " ", "").Replace(s)
}

func clamp(f, lo, hi float64) float64 {
	if math.IsNaN(f) || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

/********** hotel mapper **********/

// ParseHotels turns an inventory response body into hotels in service
// order. Only a body that is not a well-formed tree fails; absent leaves
// become "" or 0.
func ParseHotels(body []byte) ([]domain.Hotel, error) {
	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	nodes := root.All("hotel")
	if len(nodes) == 0 {
		if code := root.Leaf("error"); code != "" && code != "not_found" {
			return nil, fmt.Errorf("%w: service error %s: %s", domain.ErrMalformedResponse, code, root.Leaf("error_description"))
		}
	}

	out := make([]domain.Hotel, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, mapHotel(n))
	}
	return out, nil
}

func mapHotel(n *xmltree.Node) domain.Hotel {
	info := n.First("hotelBasicInfo")
	if info == nil {
		info = n
	}
	f := info.Project(hotelAliases)

	count := intFlexible("reviewCount", f["review_count"])
	if count < 0 {
		count = 0
	}

	return domain.Hotel{
		ID:            f["id"],
		Name:          f["name"],
		ImageURL:      f["image"],
		Address:       strings.TrimSpace(f["address1"] + " " + f["address2"]),
		MinPrice:      intFlexible("hotelMinCharge", f["min_price"]),
		SpecialNote:   f["special"],
		ReviewAverage: clamp(floatFlexible("reviewAverage", f["review_average"]), 0, 5),
		ReviewCount:   count,
		Rooms:         mapRooms(n.All("roomInfo")),
	}
}

/********** rooms mapper **********/

// mapRooms also accepts the split layout where a roomInfo carrying only
// a dailyCharge follows the roomInfo with the room's basic info.
func mapRooms(nodes []*xmltree.Node) []domain.RoomInfo {
	rooms := make([]domain.RoomInfo, 0, len(nodes))
	for _, rn := range nodes {
		f := rn.Project(roomAliases)
		chargeOnly := f["room_name"] == "" && f["plan_name"] == "" && f["reserve_url"] == "" && f["charge"] != ""
		if chargeOnly && len(rooms) > 0 && rooms[len(rooms)-1].PriceAmount == 0 {
			rooms[len(rooms)-1].PriceAmount = intFlexible("rakutenCharge", f["charge"])
			continue
		}
		rooms = append(rooms, domain.RoomInfo{
			RoomName:       f["room_name"],
			PlanName:       f["plan_name"],
			PriceAmount:    intFlexible("rakutenCharge", f["charge"]),
			ReservationURL: f["reserve_url"],
		})
	}
	return rooms
}
