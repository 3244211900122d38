package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const claimForm = `FOREST RIGHTS CLAIM
State: Madhya Pradesh
District: Sehore
Village: Budhni
Patta Holder: Ram Singh
Status: Approved
Date: 01-Jan-2020
Location 23.1984, 77.0951`

type stubRecognizer struct {
	spans []Span
	err   error
}

func (s stubRecognizer) Recognize(context.Context, string) ([]Span, error) {
	return s.spans, s.err
}

func TestExtract_PatternPass(t *testing.T) {
	bag := NewExtractor(stubRecognizer{}, nil, nil).Extract(context.Background(), claimForm)

	assert.Equal(t, []string{"Madhya Pradesh"}, bag.Values(FieldState, SourcePattern))
	assert.Equal(t, []string{"Sehore"}, bag.Values(FieldDistrict, SourcePattern))
	assert.Equal(t, []string{"Budhni"}, bag.Values(FieldVillage, SourcePattern))
	assert.Equal(t, []string{"Ram Singh"}, bag.Values(FieldPattaHolder, SourcePattern))
	assert.Equal(t, []string{"Approved"}, bag.Values(FieldStatus, SourcePattern))
	assert.Equal(t, []string{"01-Jan-2020", "01-Jan-2020"}, bag.Values(FieldDate, SourcePattern))
	require.Len(t, bag.Coordinates, 1)
	assert.InDelta(t, 23.1984, bag.Coordinates[0].Lat, 1e-9)
	assert.InDelta(t, 77.0951, bag.Coordinates[0].Lon, 1e-9)
}

func TestExtract_LabelsDoNotCrossLines(t *testing.T) {
	text := "State:\nDistrict: Sehore\nVillage: Budhni\n"
	bag := NewExtractor(stubRecognizer{}, nil, nil).Extract(context.Background(), text)

	assert.Empty(t, bag.Values(FieldState, SourcePattern))
	assert.Equal(t, []string{"Sehore"}, bag.Values(FieldDistrict, SourcePattern))
}

func TestExtract_CodesKeptAndOtherValuesTitled(t *testing.T) {
	text := "state: MADHYA PRADESH\nIFR No. FRA/2020/0042\nLand Area: 1.25 ha\nclaim status - pending\nVill. - ramnagar village"
	bag := NewExtractor(stubRecognizer{}, nil, nil).Extract(context.Background(), text)

	assert.Equal(t, []string{"Madhya Pradesh"}, bag.Values(FieldState, SourcePattern))
	assert.Equal(t, []string{"FRA/2020/0042"}, bag.Values(FieldIFRNumber, SourcePattern))
	assert.Equal(t, []string{"1.25 ha"}, bag.Values(FieldLandArea, SourcePattern))
	assert.Equal(t, []string{"Pending"}, bag.Values(FieldStatus, SourcePattern))
	assert.Equal(t, []string{"Ramnagar"}, bag.Values(FieldVillage, SourcePattern))
}

func TestExtract_StatisticalCandidatesInOffsetOrder(t *testing.T) {
	rec := stubRecognizer{spans: []Span{
		{Text: "15 March 2021", Label: LabelDate, Start: 40},
		{Text: "Sehore", Label: LabelPlace, Start: 20},
		{Text: "Sita Bai", Label: LabelPerson, Start: 5},
		{Text: "Acme Corp", Label: "ORG", Start: 1},
	}}
	bag := NewExtractor(rec, nil, nil).Extract(context.Background(), "free text with no labels at all")

	assert.Equal(t, []string{"Sehore"}, bag.Values(FieldVillage, SourceStatistical))
	assert.Equal(t, []string{"Sehore"}, bag.Values(FieldDistrict, SourceStatistical))
	assert.Equal(t, []string{"Sita Bai"}, bag.Values(FieldPattaHolder, SourceStatistical))
	assert.Equal(t, []string{"15 March 2021"}, bag.Values(FieldDate, SourceStatistical))
	assert.Equal(t, FieldPattaHolder, bag.Candidates[0].Field)
}

func TestExtract_RecognizerFailureKeepsPatternCandidates(t *testing.T) {
	bag := NewExtractor(stubRecognizer{err: errors.New("sidecar down")}, nil, nil).
		Extract(context.Background(), claimForm)

	assert.Equal(t, []string{"Budhni"}, bag.Values(FieldVillage, SourcePattern))
	assert.Empty(t, bag.Values(FieldVillage, SourceStatistical))
}

func TestExtract_EmptyText(t *testing.T) {
	bag := NewExtractor(nil, nil, nil).Extract(context.Background(), "")
	assert.True(t, bag.Empty())
}

func TestHeuristicRecognizer(t *testing.T) {
	text := "Smt. Kamla Devi W/o Shri Mohan Lal, resident of Budhni in Sehore District, Madhya Pradesh, applied on 15 March 2021."
	spans, err := NewHeuristicRecognizer(nil).Recognize(context.Background(), text)
	require.NoError(t, err)

	byLabel := map[Label][]string{}
	for _, s := range spans {
		byLabel[s.Label] = append(byLabel[s.Label], CleanValue(s.Text))
	}
	assert.Equal(t, []string{"Kamla Devi", "Mohan Lal"}, byLabel[LabelPerson])
	assert.Equal(t, []string{"Budhni", "Sehore", "Madhya Pradesh"}, byLabel[LabelPlace])
	assert.Equal(t, []string{"15 March 2021"}, byLabel[LabelDate])
}

func TestProseSpans_LocatesEntitiesInText(t *testing.T) {
	text := "Claim by Ram  Singh of Budhni.\nWitness: Ram Singh, Budhni"
	ents := []prose.Entity{
		{Text: "Ram Singh", Label: "PERSON"},
		{Text: "Budhni", Label: "GPE"},
		{Text: "Forest Department", Label: "ORG"},
		{Text: "Ram Singh", Label: "PERSON"},
		{Text: "Budhni", Label: "GPE"},
		{Text: "Nowhere", Label: "GPE"},
		{Text: "District Sehore", Label: "GPE"},
	}

	spans := proseSpans(text, ents)

	assert.Equal(t, []Span{
		{Text: "Ram  Singh", Label: LabelPerson, Start: 9},
		{Text: "Budhni", Label: LabelPlace, Start: 23},
		{Text: "Ram Singh", Label: LabelPerson, Start: 40},
		{Text: "Budhni", Label: LabelPlace, Start: 51},
	}, spans)
}

func TestProseRecognizer(t *testing.T) {
	text := "Shri Mohan Lal of Bhopal, Madhya Pradesh filed a claim on 15 March 2021 with the Gram Sabha."
	spans, err := NewProseRecognizer().Recognize(context.Background(), text)
	require.NoError(t, err)

	var dates []string
	for _, s := range spans {
		assert.Contains(t, []Label{LabelPlace, LabelPerson, LabelDate}, s.Label)
		assert.Equal(t, s.Text, text[s.Start:s.Start+len(s.Text)], "span offsets index the input")
		if s.Label == LabelDate {
			dates = append(dates, s.Text)
		}
	}
	assert.Equal(t, []string{"15 March 2021"}, dates)
	assert.IsNonDecreasing(t, starts(spans))

	spans, err = NewProseRecognizer().Recognize(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestProseRecognizer_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProseRecognizer().Recognize(ctx, claimForm)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_DefaultRecognizerKeepsPatternCandidates(t *testing.T) {
	bag := NewExtractor(nil, nil, nil).Extract(context.Background(), claimForm)

	assert.Equal(t, []string{"Budhni"}, bag.Values(FieldVillage, SourcePattern))
	assert.Equal(t, []string{"Madhya Pradesh"}, bag.Values(FieldState, SourcePattern))
}

func starts(spans []Span) []int {
	out := make([]int, len(spans))
	for i, s := range spans {
		out[i] = s.Start
	}
	return out
}

func TestHTTPRecognizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ents":[{"text":"Budhni","label":"GPE","start":9},{"text":"Ram Singh","label":"PERSON","start":30},{"text":"UNESCO","label":"ORG","start":50}]}`))
	}))
	defer srv.Close()

	rec, err := NewHTTPRecognizer(srv.URL, 0, nil)
	require.NoError(t, err)

	spans, err := rec.Recognize(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Equal(t, []Span{
		{Text: "Budhni", Label: LabelPlace, Start: 9},
		{Text: "Ram Singh", Label: LabelPerson, Start: 30},
	}, spans)
}

func TestHTTPRecognizer_RejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entities":[]}`))
	}))
	defer srv.Close()

	rec, err := NewHTTPRecognizer(srv.URL, 0, nil)
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), "whatever")
	assert.Error(t, err)
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "Budhni", CleanValue("  Budhni   District\nState: x"))
	assert.Equal(t, "Ram Singh", CleanValue("Ram \t Singh  patta holder"))
	assert.Equal(t, "", CleanValue("   "))
	assert.Equal(t, "IFR-12/2020", TitleOrKeep("IFR-12/2020"))
	assert.Equal(t, "Ram Singh", TitleOrKeep("ram singh"))
	assert.Equal(t, Key("Bhopal"), Key("  bhopal "))
}
