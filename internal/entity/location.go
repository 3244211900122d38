package entity

import "time"

// Location is the canonical row for one (state, district, village) triplet.
type Location struct {
	ID        int64     `json:"id"`
	State     string    `json:"state"`
	District  string    `json:"district"`
	Block     *string   `json:"block,omitempty"`
	Village   string    `json:"village"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasCoordinates reports whether both halves of the point are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// VillageCount is one row of the per-village claim tally.
type VillageCount struct {
	State    string `json:"state"`
	District string `json:"district"`
	Village  string `json:"village"`
	Count    int64  `json:"count"`
}
