package constants

import (
	"sort"
	"strings"
)

// States holds the canonical spelling of every state and union territory.
var States = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Goa", "Gujarat",
	"Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka", "Kerala", "Madhya Pradesh",
	"Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab",
	"Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh",
	"Uttarakhand", "West Bengal", "Andaman And Nicobar Islands", "Chandigarh",
	"Dadra And Nagar Haveli And Daman And Diu", "Delhi", "Jammu And Kashmir", "Ladakh",
	"Lakshadweep", "Puducherry",
}

// Districts holds canonical district names seen most often on claim forms.
var Districts = []string{
	// Madhya Pradesh
	"Bhopal", "Sehore", "Raisen", "Narmadapuram", "Betul", "Chhindwara", "Mandla", "Dindori",
	"Balaghat", "Seoni", "Jhabua", "Alirajpur", "Barwani", "Khargone", "Shahdol", "Umaria",
	"Anuppur", "Sidhi", "Singrauli", "Harda",
	// Odisha
	"Mayurbhanj", "Keonjhar", "Sundargarh", "Koraput", "Rayagada", "Malkangiri", "Kandhamal",
	"Nabarangpur", "Gajapati", "Kalahandi",
	// Telangana
	"Adilabad", "Bhadradri Kothagudem", "Mulugu", "Jayashankar Bhupalpally", "Komaram Bheem Asifabad",
	"Nagarkurnool", "Khammam", "Warangal",
	// Tripura
	"Dhalai", "Gomati", "Khowai", "North Tripura", "Sepahijala", "South Tripura", "Unakoti",
	"West Tripura",
}

// built-in variants; keys are normalized with aliasKey.
var stateSynonyms = map[string]string{
	"mp":                  "Madhya Pradesh",
	"madhyapradesh":       "Madhya Pradesh",
	"madya pradesh":       "Madhya Pradesh",
	"ap":                  "Andhra Pradesh",
	"up":                  "Uttar Pradesh",
	"uk":                  "Uttarakhand",
	"uttaranchal":         "Uttarakhand",
	"orissa":              "Odisha",
	"od":                  "Odisha",
	"chattisgarh":         "Chhattisgarh",
	"chhatisgarh":         "Chhattisgarh",
	"cg":                  "Chhattisgarh",
	"tn":                  "Tamil Nadu",
	"ts":                  "Telangana",
	"tg":                  "Telangana",
	"tr":                  "Tripura",
	"wb":                  "West Bengal",
	"jk":                  "Jammu And Kashmir",
	"j&k":                 "Jammu And Kashmir",
	"jammu & kashmir":     "Jammu And Kashmir",
	"pondicherry":         "Puducherry",
	"nct of delhi":        "Delhi",
	"andaman & nicobar":   "Andaman And Nicobar Islands",
	"andaman and nicobar": "Andaman And Nicobar Islands",
	"mh":                  "Maharashtra",
	"jh":                  "Jharkhand",
	"rj":                  "Rajasthan",
	"gj":                  "Gujarat",
	"ka":                  "Karnataka",
	"kl":                  "Kerala",
}

var districtSynonyms = map[string]string{
	"hoshangabad":            "Narmadapuram",
	"keonjhargarh":           "Keonjhar",
	"kendujhar":              "Keonjhar",
	"nowrangpur":             "Nabarangpur",
	"nabarangapur":           "Nabarangpur",
	"phulbani":               "Kandhamal",
	"kothagudem":             "Bhadradri Kothagudem",
	"bhupalpally":            "Jayashankar Bhupalpally",
	"asifabad":               "Komaram Bheem Asifabad",
	"kumuram bheem asifabad": "Komaram Bheem Asifabad",
	"sipahijala":             "Sepahijala",
	"warangal rural":         "Warangal",
	"chindwara":              "Chhindwara",
	"west nimar":             "Khargone",
	"sehor":                  "Sehore",
}

// AliasTable maps recognized abbreviations and variants of region and
// subregion names onto one canonical spelling. Not safe for concurrent Add.
type AliasTable struct {
	states    map[string]string
	districts map[string]string
}

// DefaultAliases returns a fresh table seeded with the built-in names and variants.
func DefaultAliases() *AliasTable {
	t := &AliasTable{states: map[string]string{}, districts: map[string]string{}}
	for _, s := range States {
		t.AddState(s, s)
	}
	for alias, canon := range stateSynonyms {
		t.AddState(alias, canon)
	}
	for _, d := range Districts {
		t.AddDistrict(d, d)
	}
	for alias, canon := range districtSynonyms {
		t.AddDistrict(alias, canon)
	}
	return t
}

func (t *AliasTable) AddState(alias, canonical string) {
	if k := aliasKey(alias); k != "" && strings.TrimSpace(canonical) != "" {
		t.states[k] = strings.TrimSpace(canonical)
	}
}

func (t *AliasTable) AddDistrict(alias, canonical string) {
	if k := aliasKey(alias); k != "" && strings.TrimSpace(canonical) != "" {
		t.districts[k] = strings.TrimSpace(canonical)
	}
}

// State resolves a region name; ok is false when the input is not a known name or variant.
func (t *AliasTable) State(input string) (string, bool) {
	canon, ok := t.states[aliasKey(input)]
	return canon, ok
}

// District resolves a subregion name; ok is false when the input is not a known name or variant.
func (t *AliasTable) District(input string) (string, bool) {
	canon, ok := t.districts[aliasKey(input)]
	return canon, ok
}

// KnownPlaces lists every canonical state and district name, sorted.
func (t *AliasTable) KnownPlaces() []string {
	seen := map[string]struct{}{}
	for _, v := range t.states {
		seen[v] = struct{}{}
	}
	for _, v := range t.districts {
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// aliasKey lowercases, drops dots and collapses whitespace so "M.P." and "mp" collide.
func aliasKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, ".", ""))
	return strings.Join(strings.Fields(s), " ")
}
