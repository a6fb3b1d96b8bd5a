package domain

type RoomInfo struct {
	RoomName       string `json:"roomName"`
	PlanName       string `json:"planName"`
	PriceAmount    int    `json:"priceAmount"`
	ReservationURL string `json:"reservationUrl"`
}

type Hotel struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ImageURL      string     `json:"imageUrl"`
	Address       string     `json:"address"`
	MinPrice      int        `json:"minPrice"`
	SpecialNote   string     `json:"specialNote"`
	ReviewAverage float64    `json:"reviewAverage"` // 0..5
	ReviewCount   int        `json:"reviewCount"`
	Rooms         []RoomInfo `json:"rooms"`
}

// HotelView is a Hotel after display normalization.
type HotelView struct {
	Hotel
	Stars [5]bool `json:"stars"`
}

// FilledStars counts the filled glyphs.
func (v HotelView) FilledStars() int {
	n := 0
	for _, s := range v.Stars {
		if s {
			n++
		}
	}
	return n
}
