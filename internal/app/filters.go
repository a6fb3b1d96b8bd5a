package app

import (
	"strings"

	"midway_hotel/internal/domain"
)

var roomKeywords = map[domain.RoomType][]string{
	domain.RoomSingle: {"シングル", "single"},
	domain.RoomDouble: {"ダブル", "double"},
	domain.RoomTwin:   {"ツイン", "twin"},
	domain.RoomSuite:  {"スイート", "suite"},
}

// applyFilters runs the options the inventory service cannot express:
// a star threshold on the display glyphs, and a room type that keeps only
// hotels with at least one matching room (and only those rooms). Order is
// preserved.
func applyFilters(in []domain.HotelView, o *domain.SearchOptions) []domain.HotelView {
	if o == nil || (o.StarRating == 0 && o.RoomType == "") {
		return in
	}
	out := make([]domain.HotelView, 0, len(in))
	for _, v := range in {
		if o.StarRating > 0 && v.FilledStars() < o.StarRating {
			continue
		}
		if o.RoomType != "" {
			rooms := matchingRooms(v.Rooms, roomKeywords[o.RoomType])
			if len(rooms) == 0 {
				continue
			}
			v.Rooms = rooms
		}
		out = append(out, v)
	}
	return out
}

func matchingRooms(rooms []domain.RoomInfo, keywords []string) []domain.RoomInfo {
	var out []domain.RoomInfo
	for _, r := range rooms {
		text := strings.ToLower(r.RoomName + " " + r.PlanName)
		for _, k := range keywords {
			if strings.Contains(text, k) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
