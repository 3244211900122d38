package extract

import (
	"context"
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
)

// Extractor runs the pattern pass and the statistical pass over one text.
type Extractor struct {
	recognizer Recognizer
	aliases    *constants.AliasTable
	logger     *slog.Logger
}

// NewExtractor uses a ProseRecognizer when rec is nil.
func NewExtractor(rec Recognizer, aliases *constants.AliasTable, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if aliases == nil {
		aliases = constants.DefaultAliases()
	}
	if rec == nil {
		rec = NewProseRecognizer()
	}
	return &Extractor{recognizer: rec, aliases: aliases, logger: logger}
}

// Extract returns the candidate bag for text. Pattern candidates come first.
// A recognizer failure only costs the statistical candidates.
func (e *Extractor) Extract(ctx context.Context, text string) Bag {
	var bag Bag
	if text == "" {
		return bag
	}
	logger := common.LoggerFrom(ctx, e.logger)

	patternPass(text, &bag)

	spans, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		logger.Warn("extract.recognizer.failed", "error", err)
		spans = nil
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	for _, s := range spans {
		switch s.Label {
		case LabelPlace:
			bag.Add(FieldVillage, s.Text, SourceStatistical, s.Start)
			// a place that names a known region also backs the region fields
			if st, ok := e.aliases.State(CleanValue(s.Text)); ok {
				bag.Add(FieldState, st, SourceStatistical, s.Start)
			} else if d, ok := e.aliases.District(CleanValue(s.Text)); ok {
				bag.Add(FieldDistrict, d, SourceStatistical, s.Start)
			}
		case LabelPerson:
			bag.Add(FieldPattaHolder, s.Text, SourceStatistical, s.Start)
		case LabelDate:
			bag.Add(FieldDate, s.Text, SourceStatistical, s.Start)
		}
	}

	logger.Debug("extract.done", "candidates", len(bag.Candidates), "coordinates", len(bag.Coordinates), "spans", len(spans))
	return bag
}
