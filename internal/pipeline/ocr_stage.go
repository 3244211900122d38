package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/fra-claims/internal/async"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/ocr"
)

// Recoverer turns a document on disk into text. *ocr.Extractor implements it.
type Recoverer interface {
	Recover(ctx context.Context, path string) (ocr.Result, error)
}

// OCRStage recovers text for a staged document on the worker pool and keeps
// the result per ref so preview and commit share one recovery.
type OCRStage struct {
	Recoverer Recoverer
	Pool      *async.Pool
	Logger    *slog.Logger
	cache     *cache.Cache
}

func NewOCRStage(rec Recoverer, pool *async.Pool, ttl time.Duration, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &OCRStage{Recoverer: rec, Pool: pool, Logger: logger, cache: cache.New(ttl, 2*ttl)}
}

// Run returns the recovered text for ref, reusing a cached result when present.
func (s *OCRStage) Run(ctx context.Context, ref, path string) (ocr.Result, error) {
	if v, ok := s.cache.Get(ref); ok {
		res := v.(ocr.Result)
		common.LoggerFrom(ctx, s.Logger).Debug("pipeline.ocr.cached", "method", res.Method)
		return res, nil
	}

	var res ocr.Result
	err := s.Pool.Do(ctx, "recover:"+ref, func(ctx context.Context) error {
		var err error
		res, err = s.Recoverer.Recover(ctx, path)
		return err
	})
	if err != nil {
		common.LoggerFrom(ctx, s.Logger).Warn("pipeline.ocr.failed", "error", err)
		return ocr.Result{}, err
	}

	s.cache.SetDefault(ref, res)
	common.LoggerFrom(ctx, s.Logger).Info("pipeline.ocr.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"empty", res.Empty(),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// Forget drops the cached result for ref.
func (s *OCRStage) Forget(ref string) {
	s.cache.Delete(ref)
}
