// Package mapping turns merged entity records and tabular rows into claim payloads.
package mapping

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/extract"
	"github.com/joseph-ayodele/fra-claims/internal/merge"
)

// Artifact is the audit blob stored with uploaded claims.
type Artifact struct {
	ExtractedText string       `json:"extracted_text"`
	Entities      merge.Record `json:"entities"`
}

type Mapper struct {
	aliases *constants.AliasTable
}

func New(aliases *constants.AliasTable) *Mapper {
	if aliases == nil {
		aliases = constants.DefaultAliases()
	}
	return &Mapper{aliases: aliases}
}

// Map builds the payload for a merged record. State and District fall back to
// "Unknown", Status to "Pending"; every other absent field stays nil.
func (m *Mapper) Map(rec merge.Record, source constants.Source, text string) entity.ClaimPayload {
	p := entity.ClaimPayload{
		State:       m.state(deref(rec.State)),
		District:    m.district(deref(rec.District)),
		Village:     optional(deref(merge.First(rec.Villages))),
		PattaHolder: optional(deref(merge.First(rec.PattaHolders))),
		Date:        optional(deref(merge.First(rec.Dates))),
		IFRNumber:   optional(deref(rec.IFRNumber)),
		LandArea:    optional(deref(rec.LandArea)),
		Status:      status(deref(rec.Status)),
		Lat:         rec.Lat,
		Lon:         rec.Lon,
		Source:      source,
	}
	if raw, err := json.Marshal(Artifact{ExtractedText: text, Entities: rec}); err == nil {
		s := string(raw)
		p.RawOCR = &s
	}
	return p
}

// Row keys accepted by FromRow.
const (
	ColState       = "state"
	ColDistrict    = "district"
	ColBlock       = "block"
	ColVillage     = "village"
	ColPattaHolder = "patta_holder"
	ColAddress     = "address"
	ColLandArea    = "land_area"
	ColIFRNumber   = "ifr_number"
	ColStatus      = "status"
	ColDate        = "date"
	ColLat         = "lat"
	ColLon         = "lon"
)

// FromRow maps a spreadsheet or form row keyed by the Col* names. Unparseable
// coordinates are dropped rather than rejected.
func (m *Mapper) FromRow(row map[string]string, source constants.Source) entity.ClaimPayload {
	get := func(k string) string { return clean(row[k]) }
	return entity.ClaimPayload{
		State:       m.state(get(ColState)),
		District:    m.district(get(ColDistrict)),
		Block:       optional(extract.Normalize(get(ColBlock))),
		Village:     optional(extract.Normalize(get(ColVillage))),
		PattaHolder: optional(get(ColPattaHolder)),
		Address:     optional(get(ColAddress)),
		LandArea:    optional(get(ColLandArea)),
		IFRNumber:   optional(get(ColIFRNumber)),
		Status:      status(get(ColStatus)),
		Date:        optional(get(ColDate)),
		Lat:         parseCoord(get(ColLat)),
		Lon:         parseCoord(get(ColLon)),
		Source:      source,
	}
}

// Patch applies the keys present in row to p with the same normalization as
// FromRow. A present but empty key clears an optional field; State and
// District fall back to "Unknown", Status to "Pending". Source and RawOCR are
// left alone.
func (m *Mapper) Patch(p entity.ClaimPayload, row map[string]string) entity.ClaimPayload {
	for k, v := range row {
		v = clean(v)
		switch k {
		case ColState:
			p.State = m.state(v)
		case ColDistrict:
			p.District = m.district(v)
		case ColBlock:
			p.Block = optional(extract.Normalize(v))
		case ColVillage:
			p.Village = optional(extract.Normalize(v))
		case ColPattaHolder:
			p.PattaHolder = optional(v)
		case ColAddress:
			p.Address = optional(v)
		case ColLandArea:
			p.LandArea = optional(v)
		case ColIFRNumber:
			p.IFRNumber = optional(v)
		case ColStatus:
			p.Status = status(v)
		case ColDate:
			p.Date = optional(v)
		case ColLat:
			p.Lat = parseCoord(v)
		case ColLon:
			p.Lon = parseCoord(v)
		}
	}
	return p
}

func (m *Mapper) state(v string) string {
	if v = clean(v); v == "" {
		return constants.Unknown
	}
	if canon, ok := m.aliases.State(v); ok {
		return canon
	}
	return extract.Normalize(v)
}

func (m *Mapper) district(v string) string {
	if v = clean(v); v == "" {
		return constants.Unknown
	}
	if canon, ok := m.aliases.District(v); ok {
		return canon
	}
	return extract.Normalize(v)
}

// status: an extracted or supplied value wins; otherwise Pending.
func status(v string) string {
	if v = clean(v); v == "" {
		return constants.StatusPending
	}
	return extract.Normalize(v)
}

func parseCoord(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s = clean(s); s == "" {
		return nil
	}
	return &s
}
