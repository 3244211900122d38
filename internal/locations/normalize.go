package locations

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// Bounding box of India, inclusive.
const (
	MinLat = 6.0
	MaxLat = 37.5
	MinLon = 68.0
	MaxLon = 97.5
)

// NormalizePart trims, collapses whitespace and title-cases one triplet component.
func NormalizePart(s string) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

func NormalizeTriplet(state, district, village string) (string, string, string) {
	return NormalizePart(state), NormalizePart(district), NormalizePart(village)
}

// Plausible reports whether c lies inside the country bounding box.
func Plausible(c *entity.Coordinates) bool {
	if c == nil {
		return false
	}
	return c.Lat >= MinLat && c.Lat <= MaxLat && c.Lon >= MinLon && c.Lon <= MaxLon
}

// QueryFor builds the free-text search used for geocoding.
func QueryFor(state, district, village, country string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{village, district, state, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
