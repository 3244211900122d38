package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/fra-claims/constants"
)

// Label is the entity class a recognizer assigns to a span.
type Label string

const (
	LabelPlace  Label = "PLACE"
	LabelPerson Label = "PERSON"
	LabelDate   Label = "DATE"
)

// Span is one tagged stretch of text.
type Span struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
	Start int    `json:"start"`
}

// Recognizer is the statistical pass: it tags places, persons and dates
// without relying on field labels.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Span, error)
}

const capSpan = `([A-Z][A-Za-z]+(?:[ ]+[A-Z][A-Za-z]+){0,2})`

var (
	reLocative = regexp.MustCompile(`\b(?i:village|gram|in|at|near|resident[ \t]+of)[ \t]+` + capSpan)
	rePerson   = regexp.MustCompile(`(?:\b(?i:shri|smt|sri|mr|mrs|kumari|son[ \t]+of|wife[ \t]+of|daughter[ \t]+of)\.?|\b(?i:s|w|d)/o\.?)[ \t]+` + capSpan)
	reMonthDay = regexp.MustCompile(`(?i)\b(?:\d{1,2}(?:st|nd|rd|th)?[ \t]+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,?[ \t]+\d{4}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?,?[ \t]+\d{4})\b`)
)

// words that follow a locative or honorific cue but are never names
var spanStopwords = map[string]struct{}{
	"state": {}, "district": {}, "village": {}, "block": {}, "tehsil": {}, "status": {},
	"date": {}, "claim": {}, "name": {}, "the": {}, "this": {}, "forest": {}, "india": {},
}

var honorifics = map[string]struct{}{
	"shri": {}, "sri": {}, "smt": {}, "mr": {}, "mrs": {}, "kumari": {},
}

// HeuristicRecognizer is a dependency-free recognizer: a gazetteer of known
// region names, capitalized phrases after locative cues or honorifics, and
// month-name dates.
type HeuristicRecognizer struct {
	gazetteer *regexp.Regexp
}

func NewHeuristicRecognizer(aliases *constants.AliasTable) *HeuristicRecognizer {
	if aliases == nil {
		aliases = constants.DefaultAliases()
	}
	places := aliases.KnownPlaces()
	// longest first so "West Tripura" wins over "Tripura"
	sort.SliceStable(places, func(i, j int) bool { return len(places[i]) > len(places[j]) })
	quoted := make([]string, 0, len(places))
	for _, p := range places {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(p), " ", `[ \t]+`))
	}
	var gaz *regexp.Regexp
	if len(quoted) > 0 {
		gaz = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return &HeuristicRecognizer{gazetteer: gaz}
}

func (h *HeuristicRecognizer) Recognize(_ context.Context, text string) ([]Span, error) {
	var spans []Span
	seen := map[int]struct{}{}
	add := func(label Label, start, end int) {
		if label == LabelPerson {
			start = skipHonorifics(text, start, end)
		}
		if _, dup := seen[start]; dup {
			return
		}
		val := text[start:end]
		if _, stop := spanStopwords[strings.ToLower(strings.Fields(val)[0])]; stop {
			return
		}
		seen[start] = struct{}{}
		spans = append(spans, Span{Text: val, Label: label, Start: start})
	}

	if h.gazetteer != nil {
		for _, m := range h.gazetteer.FindAllStringIndex(text, -1) {
			add(LabelPlace, m[0], m[1])
		}
	}
	for _, m := range reLocative.FindAllStringSubmatchIndex(text, -1) {
		add(LabelPlace, m[2], m[3])
	}
	for _, m := range rePerson.FindAllStringSubmatchIndex(text, -1) {
		add(LabelPerson, m[2], m[3])
	}
	for _, m := range reMonthDay.FindAllStringIndex(text, -1) {
		add(LabelDate, m[0], m[1])
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}

// skipHonorifics moves start past leading titles such as "Shri" inside a span.
func skipHonorifics(text string, start, end int) int {
	for {
		words := strings.Fields(text[start:end])
		if len(words) < 2 {
			return start
		}
		if _, ok := honorifics[strings.ToLower(strings.TrimSuffix(words[0], "."))]; !ok {
			return start
		}
		start += strings.Index(text[start:end], words[0]) + len(words[0])
		for start < end && (text[start] == ' ' || text[start] == '\t') {
			start++
		}
	}
}
