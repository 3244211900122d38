package pipeline

import (
	"context"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/extract"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
	"github.com/joseph-ayodele/fra-claims/internal/merge"
	"github.com/joseph-ayodele/fra-claims/internal/ocr"
)

// EntityExtractor finds candidate field values in text. *extract.Extractor implements it.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) extract.Bag
}

// ParseStage runs extraction, merge and mapping over recovered text. It has no side effects.
type ParseStage struct {
	Extractor EntityExtractor
	Mapper    *mapping.Mapper
}

func NewParseStage(ex EntityExtractor, mapper *mapping.Mapper) *ParseStage {
	return &ParseStage{Extractor: ex, Mapper: mapper}
}

// Parsed is the outcome of one parse: the merged record and the payload mapped from it.
type Parsed struct {
	Record  merge.Record
	Payload entity.ClaimPayload
}

// Run parses res. An empty recovery is parsed as "" so nothing is extracted
// from the sentinel itself, but the sentinel is kept in the audit artifact.
func (p *ParseStage) Run(ctx context.Context, res ocr.Result, source constants.Source) Parsed {
	text := res.Text
	if res.Empty() {
		text = ""
	}
	rec := merge.Merge(p.Extractor.Extract(ctx, text))
	return Parsed{Record: rec, Payload: p.Mapper.Map(rec, source, res.Text)}
}
