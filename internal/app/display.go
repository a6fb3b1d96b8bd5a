package app

import (
	"math"
	"regexp"

	"golang.org/x/text/width"

	"midway_hotel/internal/domain"
)

// asciiRange matches names made only of printable ASCII, whitespace and
// the full-width forms of printable ASCII (U+3000, U+FF01..U+FF5E).
var asciiRange = regexp.MustCompile(`^[\x20-\x7E\s\x{3000}\x{FF01}-\x{FF5E}]*$`)

// NormalizeWidth folds full-width characters to half-width, but only for
// names that are otherwise ASCII-range. Names with any other script are
// returned untouched.
func NormalizeWidth(name string) string {
	if !asciiRange.MatchString(name) {
		return name
	}
	return width.Narrow.String(name)
}

// StarGlyphs rounds half-up and fills the first N of five glyphs.
func StarGlyphs(avg float64) [5]bool {
	var out [5]bool
	if math.IsNaN(avg) {
		return out
	}
	n := int(math.Floor(avg + 0.5))
	if n < 0 {
		n = 0
	}
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = true
	}
	return out
}

// Present applies both display transforms to one parsed hotel.
func Present(h domain.Hotel) domain.HotelView {
	h.Name = NormalizeWidth(h.Name)
	return domain.HotelView{Hotel: h, Stars: StarGlyphs(h.ReviewAverage)}
}
