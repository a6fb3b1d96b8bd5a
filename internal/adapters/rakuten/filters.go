package rakuten

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// squeeze maps amenity names (English and the Japanese form labels) to
// the service's squeezeCondition values. Amenities without an equivalent
// (parking, pool, gym) are not sent.
var squeeze = map[string]string{
	"wifi":       "internet",
	"wi-fi":      "internet",
	"internet":   "internet",
	"無料 wi-fi":   "internet",
	"breakfast":  "breakfast",
	"朝食付き":       "breakfast",
	"dinner":     "dinner",
	"夕食付き":       "dinner",
	"onsen":      "onsen",
	"温泉":         "onsen",
	"bath":       "daiyoku",
	"大浴場":        "daiyoku",
	"nonsmoking": "kinen",
	"禁煙":         "kinen",
}

func squeezeConditions(amenities []string) string {
	seen := map[string]bool{}
	var out []string
	for _, a := range amenities {
		if v, ok := squeeze[a]; ok && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return strings.Join(out, ",")
}

var digits = regexp.MustCompile(`\d+`)

// ParsePriceRange reads free text such as "¥5000 - ¥10000", "５０００〜",
// "-10000" or "8000". A lone number is a ceiling. Zero means unbounded.
func ParsePriceRange(s string) (lo, hi int) {
	s = width.Narrow.String(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	for _, sep := range []string{"〜", "~", "–", "-"} {
		if i := strings.Index(s, sep); i >= 0 {
			lo, hi = firstInt(s[:i]), firstInt(s[i+len(sep):])
			if lo > 0 && hi > 0 && lo > hi {
				lo, hi = hi, lo
			}
			return lo, hi
		}
	}
	return 0, firstInt(s)
}

func firstInt(s string) int {
	m := digits.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
