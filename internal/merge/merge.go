// Package merge folds a candidate bag into one canonical entity record.
package merge

import (
	"github.com/joseph-ayodele/fra-claims/internal/extract"
)

// Record is the merged view of a bag: one value per single-valued field,
// ordered duplicate-free lists for the rest.
type Record struct {
	State        *string  `json:"state"`
	District     *string  `json:"district"`
	Villages     []string `json:"villages"`
	PattaHolders []string `json:"patta_holders"`
	Dates        []string `json:"dates"`
	IFRNumber    *string  `json:"ifr_number"`
	LandArea     *string  `json:"land_area"`
	Status       *string  `json:"status"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Raw          Raw      `json:"raw_entities"`
}

// Raw keeps the pre-merge candidates for audit.
type Raw struct {
	Candidates  map[extract.Field][]extract.Candidate `json:"candidates"`
	Coordinates []extract.Coordinate                  `json:"coords"`
}

// Merge is pure: the same bag always yields the same record.
func Merge(bag extract.Bag) Record {
	rec := Record{
		State:        single(bag, extract.FieldState),
		District:     single(bag, extract.FieldDistrict),
		IFRNumber:    single(bag, extract.FieldIFRNumber),
		LandArea:     single(bag, extract.FieldLandArea),
		Status:       single(bag, extract.FieldStatus),
		Villages:     multi(bag, extract.FieldVillage),
		PattaHolders: multi(bag, extract.FieldPattaHolder),
		Dates:        multi(bag, extract.FieldDate),
		Raw: Raw{
			Candidates:  map[extract.Field][]extract.Candidate{},
			Coordinates: append([]extract.Coordinate{}, bag.Coordinates...),
		},
	}
	for _, c := range bag.Candidates {
		rec.Raw.Candidates[c.Field] = append(rec.Raw.Candidates[c.Field], c)
	}
	if len(bag.Coordinates) > 0 {
		lat, lon := bag.Coordinates[0].Lat, bag.Coordinates[0].Lon
		rec.Lat, rec.Lon = &lat, &lon
	}
	return rec
}

// ordered returns pattern values before statistical ones, normalized, empties dropped.
func ordered(bag extract.Bag, field extract.Field) []string {
	var out []string
	for _, src := range []extract.Source{extract.SourcePattern, extract.SourceStatistical} {
		for _, v := range bag.Values(field, src) {
			if v = extract.Normalize(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func single(bag extract.Bag, field extract.Field) *string {
	vals := ordered(bag, field)
	if len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

// multi dedups case- and whitespace-insensitively, keeping first occurrences.
func multi(bag extract.Bag, field extract.Field) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range ordered(bag, field) {
		k := extract.Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// First returns the first element of vals, or nil.
func First(vals []string) *string {
	if len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}
