package extract

// Field names a claim attribute a candidate value belongs to.
type Field string

const (
	FieldState       Field = "state"
	FieldDistrict    Field = "district"
	FieldVillage     Field = "village"
	FieldPattaHolder Field = "patta_holder"
	FieldIFRNumber   Field = "ifr_number"
	FieldLandArea    Field = "land_area"
	FieldStatus      Field = "status"
	FieldDate        Field = "date"
)

// Source tags which pass produced a candidate. Pattern hits outrank statistical ones.
type Source string

const (
	SourcePattern     Source = "pattern"
	SourceStatistical Source = "statistical"
)

// Candidate is one value proposed for a field.
type Candidate struct {
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Source Source `json:"source"`
	Offset int    `json:"offset"` // byte offset of first occurrence in the text
}

// Coordinate is a decimal lat/lon pair found in the text.
type Coordinate struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Offset int     `json:"offset"`
}

// Bag collects candidates in emission order. Within one source, earlier
// candidates have priority.
type Bag struct {
	Candidates  []Candidate  `json:"candidates"`
	Coordinates []Coordinate `json:"coordinates"`
}

// Add cleans value and appends it; values that clean to nothing are dropped.
func (b *Bag) Add(field Field, value string, source Source, offset int) {
	v := TitleOrKeep(CleanValue(value))
	if v == "" {
		return
	}
	b.Candidates = append(b.Candidates, Candidate{Field: field, Value: v, Source: source, Offset: offset})
}

func (b *Bag) AddCoordinate(lat, lon float64, offset int) {
	b.Coordinates = append(b.Coordinates, Coordinate{Lat: lat, Lon: lon, Offset: offset})
}

// Values returns the values for field from source, in emission order.
func (b *Bag) Values(field Field, source Source) []string {
	var out []string
	for _, c := range b.Candidates {
		if c.Field == field && c.Source == source {
			out = append(out, c.Value)
		}
	}
	return out
}

// Empty reports whether neither pass found anything.
func (b *Bag) Empty() bool {
	return len(b.Candidates) == 0 && len(b.Coordinates) == 0
}
