package entity

import (
	"time"

	"github.com/joseph-ayodele/fra-claims/constants"
)

// Coordinates is a decimal-degree point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ClaimPayload is a mapped claim ready for persistence. State and District are never empty.
type ClaimPayload struct {
	State       string           `json:"state"`
	District    string           `json:"district"`
	Block       *string          `json:"block,omitempty"`
	Village     *string          `json:"village,omitempty"`
	PattaHolder *string          `json:"patta_holder,omitempty"`
	Address     *string          `json:"address,omitempty"`
	LandArea    *string          `json:"land_area,omitempty"`
	IFRNumber   *string          `json:"ifr_number,omitempty"`
	Status      string           `json:"status"`
	Date        *string          `json:"date,omitempty"`
	Lat         *float64         `json:"lat,omitempty"`
	Lon         *float64         `json:"lon,omitempty"`
	Source      constants.Source `json:"source"`
	RawOCR      *string          `json:"raw_ocr,omitempty"`
}

// Coordinates returns the claimed point, or nil unless both halves are set.
func (p ClaimPayload) Coordinates() *Coordinates {
	if p.Lat == nil || p.Lon == nil {
		return nil
	}
	return &Coordinates{Lat: *p.Lat, Lon: *p.Lon}
}

// VillageName returns the village or "" when absent.
func (p ClaimPayload) VillageName() string {
	if p.Village == nil {
		return ""
	}
	return *p.Village
}

// Claim represents a stored claim for data transfer between layers.
type Claim struct {
	ID int64 `json:"id"`
	ClaimPayload
	CreatedAt time.Time `json:"created_at"`
}
