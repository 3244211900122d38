// Package app assembles the claim pipeline from configuration. Both the
// daemon and the CLI build their object graph through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/async"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/export"
	"github.com/joseph-ayodele/fra-claims/internal/extract"
	"github.com/joseph-ayodele/fra-claims/internal/ingest"
	"github.com/joseph-ayodele/fra-claims/internal/locations"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
	"github.com/joseph-ayodele/fra-claims/internal/ocr"
	"github.com/joseph-ayodele/fra-claims/internal/pipeline"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
	"github.com/joseph-ayodele/fra-claims/internal/staging"
)

// App holds the wired services. Close releases them in reverse order.
type App struct {
	Config   *common.Config
	DB       *repository.DB
	Claims   repository.ClaimRepository
	Villages repository.LocationRepository
	Staging  *staging.Store
	Pool     *async.Pool
	Pipeline *pipeline.Service
	Importer *ingest.Usecase
	Exporter *export.Service
	Logger   *slog.Logger
}

// NewLogger builds the process logger at the configured level.
func NewLogger(level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if json {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// OpenDB opens and migrates the claim store.
func OpenDB(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.ConfigFromCommon(cfg.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// New wires every service over a freshly opened database.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	aliases, err := mapping.LoadAliases(cfg.AliasFile)
	if err != nil {
		return nil, err
	}

	recognizer, err := newRecognizer(cfg.NER, aliases, logger)
	if err != nil {
		return nil, err
	}

	store, err := staging.New(cfg.Staging.Dir, logger)
	if err != nil {
		return nil, err
	}

	db, err := OpenDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	claims := repository.NewClaimRepository(db, logger)
	villages := repository.NewLocationRepository(db, logger)

	pool := async.NewPool(logger,
		async.WithWorkers(cfg.Workers.Workers),
		async.WithQueueSize(cfg.Workers.QueueSize),
		async.WithTaskTimeout(cfg.Workers.TaskTimeout),
	)

	pacer := locations.NewPacer(cfg.Geocoder.Delay, locations.RealClock())
	geocoder := locations.NewNominatimGeocoder(locations.NominatimConfigFromCommon(cfg.Geocoder), pacer, logger)
	canon := locations.New(villages, geocoder, logger, locations.WithCountry(cfg.Geocoder.Country))

	mapper := mapping.New(aliases)
	ocrStage := pipeline.NewOCRStage(ocr.NewExtractor(ocr.ConfigFromCommon(cfg.OCR), logger), pool, cfg.Staging.ArtifactTTL, logger)
	parse := pipeline.NewParseStage(extract.NewExtractor(recognizer, aliases, logger), mapper)
	svc := pipeline.NewService(logger, store, ocrStage, parse, claims, canon, pool)

	return &App{
		Config:   cfg,
		DB:       db,
		Claims:   claims,
		Villages: villages,
		Staging:  store,
		Pool:     pool,
		Pipeline: svc,
		Importer: ingest.NewUsecase(mapper, svc, logger),
		Exporter: export.NewService(claims, logger),
		Logger:   logger,
	}, nil
}

// Health reports whether the database answers.
func (a *App) Health(ctx context.Context) error {
	return a.DB.HealthCheck(ctx, 2*time.Second, a.Logger)
}

// Close drains background work, then closes the database.
func (a *App) Close(ctx context.Context) {
	a.Pool.Shutdown(ctx)
	a.DB.Close(a.Logger)
}

// newRecognizer picks the statistical pass named by cfg.Mode.
func newRecognizer(cfg common.NERConfig, aliases *constants.AliasTable, logger *slog.Logger) (extract.Recognizer, error) {
	switch cfg.Mode {
	case "http":
		r, err := extract.NewHTTPRecognizer(cfg.URL, cfg.Timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("ner recognizer: %w", err)
		}
		logger.Info("using remote entity recognizer", "url", cfg.URL)
		return r, nil
	case "heuristic":
		logger.Info("using heuristic entity recognizer")
		return extract.NewHeuristicRecognizer(aliases), nil
	default:
		return extract.NewProseRecognizer(), nil
	}
}
