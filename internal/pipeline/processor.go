// Package pipeline sequences text recovery, extraction, merge and mapping for
// staged claim documents, and persists claims with their canonical location.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/async"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/locations"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
	"github.com/joseph-ayodele/fra-claims/internal/merge"
)

// Stager resolves and removes staged uploads. *staging.Store implements it.
type Stager interface {
	Path(ref string) (string, error)
	Discard(ref string) error
}

// ClaimStore persists mapped claims. repository.ClaimRepository implements it.
type ClaimStore interface {
	Insert(ctx context.Context, p entity.ClaimPayload) (*entity.Claim, error)
	Get(ctx context.Context, id int64) (*entity.Claim, error)
	Update(ctx context.Context, id int64, p entity.ClaimPayload) (*entity.Claim, error)
}

// Canonicalizer resolves a claim's triplet to its canonical location row.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, state, district, village string, claimed *entity.Coordinates) locations.Result
}

// Preview is what a reviewer sees before committing a document.
type Preview struct {
	Ref           string       `json:"ref"`
	ExtractedText string       `json:"extracted_text"`
	Entities      merge.Record `json:"entities"`
	Method        string       `json:"method"`
	Pages         int          `json:"pages"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// Committed is a stored claim plus what canonicalization did with its location.
type Committed struct {
	Claim    *entity.Claim     `json:"claim"`
	Location *locations.Result `json:"location,omitempty"`
}

type Service struct {
	Staging       Stager
	OCR           *OCRStage
	Parse         *ParseStage
	Mapper        *mapping.Mapper
	Claims        ClaimStore
	Canonicalizer Canonicalizer
	Pool          *async.Pool
	Logger        *slog.Logger
}

func NewService(
	logger *slog.Logger,
	staging Stager,
	ocrStage *OCRStage,
	parse *ParseStage,
	claims ClaimStore,
	canon Canonicalizer,
	pool *async.Pool,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Staging:       staging,
		OCR:           ocrStage,
		Parse:         parse,
		Mapper:        parse.Mapper,
		Claims:        claims,
		Canonicalizer: canon,
		Pool:          pool,
		Logger:        logger,
	}
}

// Preview recovers and parses a staged document without persisting anything.
func (s *Service) Preview(ctx context.Context, ref string) (*Preview, error) {
	ctx = common.WithStagedRef(ctx, ref)
	path, err := s.Staging.Path(ref)
	if err != nil {
		return nil, err
	}
	res, err := s.OCR.Run(ctx, ref, path)
	if err != nil {
		return nil, err
	}
	parsed := s.Parse.Run(ctx, res, constants.SourceUploaded)

	common.LoggerFrom(ctx, s.Logger).Info("pipeline.preview.ok",
		"villages", len(parsed.Record.Villages),
		"has_coordinates", parsed.Record.Lat != nil,
	)
	return &Preview{
		Ref:           ref,
		ExtractedText: res.Text,
		Entities:      parsed.Record,
		Method:        res.Method,
		Pages:         res.Pages,
		Warnings:      res.Warnings,
	}, nil
}

// Commit parses a staged document, stores the claim, canonicalizes its
// location and discards the staged file.
func (s *Service) Commit(ctx context.Context, ref string) (*Committed, error) {
	ctx = common.WithStagedRef(ctx, ref)
	logger := common.LoggerFrom(ctx, s.Logger)

	path, err := s.Staging.Path(ref)
	if err != nil {
		return nil, err
	}
	res, err := s.OCR.Run(ctx, ref, path)
	if err != nil {
		return nil, err
	}
	parsed := s.Parse.Run(ctx, res, constants.SourceUploaded)

	out, err := s.persist(ctx, parsed.Payload)
	if err != nil {
		return nil, err
	}

	s.OCR.Forget(ref)
	if err := s.Staging.Discard(ref); err != nil {
		logger.Warn("pipeline.discard.failed", "error", err)
	}
	logger.Info("pipeline.commit.ok", "claim_id", out.Claim.ID)
	return out, nil
}

// CreateManual stores a claim typed in by an officer. State, district and
// village are required; coordinates must be in range when given.
func (s *Service) CreateManual(ctx context.Context, row map[string]string) (*Committed, error) {
	v := common.NewValidator().
		Field(mapping.ColState, row[mapping.ColState], common.Required, common.MaxLength(128)).
		Field(mapping.ColDistrict, row[mapping.ColDistrict], common.Required, common.MaxLength(128)).
		Field(mapping.ColVillage, row[mapping.ColVillage], common.Required, common.MaxLength(128)).
		Field(mapping.ColLat, row[mapping.ColLat], common.Between(-90, 90)).
		Field(mapping.ColLon, row[mapping.ColLon], common.Between(-180, 180))
	if err := v.Error(); err != nil {
		return nil, err
	}

	out, err := s.persist(ctx, s.Mapper.FromRow(row, constants.SourceManual))
	if err != nil {
		return nil, err
	}
	common.LoggerFrom(ctx, s.Logger).Info("pipeline.manual.ok", "claim_id", out.Claim.ID)
	return out, nil
}

// Update applies the fields present in row to claim id and canonicalizes the
// result like a new claim. Present region fields must not be blank.
func (s *Service) Update(ctx context.Context, id int64, row map[string]string) (*Committed, error) {
	v := common.NewValidator()
	for _, col := range []string{mapping.ColState, mapping.ColDistrict, mapping.ColVillage} {
		if val, ok := row[col]; ok {
			v.Field(col, val, common.Required, common.MaxLength(128))
		}
	}
	v.Field(mapping.ColLat, row[mapping.ColLat], common.Between(-90, 90)).
		Field(mapping.ColLon, row[mapping.ColLon], common.Between(-180, 180))
	if err := v.Error(); err != nil {
		return nil, err
	}

	current, err := s.Claims.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	claim, err := s.Claims.Update(ctx, id, s.Mapper.Patch(current.ClaimPayload, row))
	if err != nil {
		return nil, err
	}
	out := &Committed{Claim: claim, Location: s.locate(ctx, claim)}
	common.LoggerFrom(ctx, s.Logger).Info("pipeline.update.ok", "claim_id", id, "fields", len(row))
	return out, nil
}

// Record stores p and queues canonicalization without waiting for it.
// Bulk import uses it so one slow geocode does not hold up the batch.
func (s *Service) Record(ctx context.Context, p entity.ClaimPayload) (*entity.Claim, error) {
	claim, err := s.Claims.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	err = s.Pool.Go(ctx, "canonicalize", func(ctx context.Context) error {
		s.canonicalize(ctx, claim)
		return nil
	})
	if err != nil {
		common.LoggerFrom(ctx, s.Logger).Warn("pipeline.canonicalize.not_queued", "claim_id", claim.ID, "error", err)
	}
	return claim, nil
}

// Discard drops a staged document and anything cached for it.
func (s *Service) Discard(ctx context.Context, ref string) error {
	s.OCR.Forget(ref)
	if err := s.Staging.Discard(ref); err != nil {
		return err
	}
	common.LoggerFrom(common.WithStagedRef(ctx, ref), s.Logger).Info("pipeline.discard.ok")
	return nil
}

// persist inserts the claim, then canonicalizes its location on the pool.
// Canonicalization never fails the call: the claim is already stored.
func (s *Service) persist(ctx context.Context, p entity.ClaimPayload) (*Committed, error) {
	claim, err := s.Claims.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Committed{Claim: claim, Location: s.locate(ctx, claim)}, nil
}

// locate canonicalizes claim on the pool and waits. It returns nil when the
// work could not run; the claim stays stored either way.
func (s *Service) locate(ctx context.Context, claim *entity.Claim) *locations.Result {
	var loc locations.Result
	err := s.Pool.Do(ctx, "canonicalize", func(ctx context.Context) error {
		loc = s.canonicalize(ctx, claim)
		return nil
	})
	if err != nil {
		common.LoggerFrom(ctx, s.Logger).Warn("pipeline.canonicalize.skipped", "claim_id", claim.ID, "error", err)
		return nil
	}
	return &loc
}

func (s *Service) canonicalize(ctx context.Context, c *entity.Claim) locations.Result {
	res := s.Canonicalizer.Canonicalize(ctx, c.State, c.District, c.VillageName(), c.Coordinates())
	common.LoggerFrom(ctx, s.Logger).Debug("pipeline.canonicalize.done", "claim_id", c.ID, "action", res.Action)
	return res
}
