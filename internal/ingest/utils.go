package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
)

// AllowedExt checks if a file extension is an importable spreadsheet.
func AllowedExt(name string) bool {
	_, ok := constants.SpreadsheetExtensions[constants.NormalizeExt(filepath.Ext(name))]
	return ok
}

// headerAliases lists, per claim column, the header spellings accepted for it.
var headerAliases = map[string][]string{
	mapping.ColState:       {"state", "st", "province"},
	mapping.ColDistrict:    {"district", "dist"},
	mapping.ColBlock:       {"block", "tehsil", "taluka"},
	mapping.ColVillage:     {"village", "village_name", "gram"},
	mapping.ColPattaHolder: {"patta_holder", "pattaholder", "name", "claimant"},
	mapping.ColAddress:     {"address"},
	mapping.ColIFRNumber:   {"ifr_number", "ifrno", "claim_id"},
	mapping.ColLandArea:    {"land_area", "area", "hectares", "ha"},
	mapping.ColStatus:      {"status", "claim_status"},
	mapping.ColDate:        {"date", "claim_date", "application_date"},
	mapping.ColLat:         {"lat", "latitude"},
	mapping.ColLon:         {"lon", "lng", "longitude"},
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// pickColumns maps each claim column to the index of the first header that
// names it, case-insensitively. Columns with no matching header are absent.
func pickColumns(headers []string) map[string]int {
	out := make(map[string]int, len(headerAliases))
	for col, alts := range headerAliases {
		for i, h := range headers {
			k := headerKey(h)
			if k == "" {
				continue
			}
			if contains(alts, k) {
				out[col] = i
				break
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
