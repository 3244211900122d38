package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

// prose's bundled model labels; anything else is dropped.
var proseLabels = map[string]Label{
	"GPE":    LabelPlace,
	"PERSON": LabelPerson,
}

// ProseRecognizer tags places and persons with prose's averaged-perceptron
// named-entity model. The model has no date class, so month-name dates are
// matched separately.
type ProseRecognizer struct{}

func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

func (p *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose: %w", err)
	}
	spans := proseSpans(text, doc.Entities())
	for _, m := range reMonthDay.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Text: text[m[0]:m[1]], Label: LabelDate, Start: m[0]})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}

// proseSpans maps prose entities back onto text. Entities carry no offsets and
// their tokens are re-joined with single spaces, so each one is searched for
// from the end of the previous match with any whitespace between tokens.
// Entities that cannot be located are dropped.
func proseSpans(text string, ents []prose.Entity) []Span {
	var spans []Span
	cursor := 0
	for _, e := range ents {
		label, ok := proseLabels[e.Label]
		if !ok {
			continue
		}
		toks := strings.Fields(e.Text)
		if len(toks) == 0 {
			continue
		}
		if _, stop := spanStopwords[strings.ToLower(toks[0])]; stop {
			continue
		}
		for i, t := range toks {
			toks[i] = regexp.QuoteMeta(t)
		}
		re, err := regexp.Compile(`\b` + strings.Join(toks, `\s*`))
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(text[cursor:])
		if loc == nil {
			// prose may report entities out of text order
			if loc = re.FindStringIndex(text); loc == nil {
				continue
			}
		} else {
			loc[0] += cursor
			loc[1] += cursor
			cursor = loc[1]
		}
		spans = append(spans, Span{Text: text[loc[0]:loc[1]], Label: label, Start: loc[0]})
	}
	return spans
}
