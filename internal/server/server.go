// Package server exposes the claim pipeline and claim store over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/ingest"
	"github.com/joseph-ayodele/fra-claims/internal/pipeline"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

// Pipeline is the document and manual-entry flow. *pipeline.Service implements it.
type Pipeline interface {
	Preview(ctx context.Context, ref string) (*pipeline.Preview, error)
	Commit(ctx context.Context, ref string) (*pipeline.Committed, error)
	CreateManual(ctx context.Context, row map[string]string) (*pipeline.Committed, error)
	Update(ctx context.Context, id int64, row map[string]string) (*pipeline.Committed, error)
	Discard(ctx context.Context, ref string) error
}

// Stager accepts uploads. *staging.Store implements it.
type Stager interface {
	Stage(ctx context.Context, filename string, r io.Reader) (*entity.StagedFile, error)
}

// Importer loads spreadsheets and CSV files. *ingest.Usecase implements it.
type Importer interface {
	Import(ctx context.Context, filename string, r io.Reader) (*ingest.ImportResult, error)
}

// Exporter renders claims as a workbook. *export.Service implements it.
type Exporter interface {
	ExportClaimsXLSX(ctx context.Context, f repository.ClaimFilter) ([]byte, error)
}

type Config struct {
	Pipeline       Pipeline
	Staging        Stager
	Claims         repository.ClaimRepository
	Villages       repository.LocationRepository
	Importer       Importer
	Exporter       Exporter
	Health         func(ctx context.Context) error
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Server struct {
	cfg    Config
	schema *manualSchema
	logger *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	schema, err := newManualSchema()
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, schema: schema, logger: cfg.Logger}, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(s.logger))

	router.GET("/healthz", s.Healthz)

	api := router.Group("/api")
	{
		claims := api.Group("/claims")
		claims.POST("/parse", s.ParseDocument)
		claims.POST("/commit/:ref", s.CommitDocument)
		claims.DELETE("/staged/:ref", s.DiscardDocument)
		claims.POST("/import", s.ImportSpreadsheet)
		claims.POST("", s.CreateClaim)
		claims.GET("", s.ListClaims)
		claims.GET("/count", s.CountClaims)
		claims.GET("/:id", s.GetClaim)
		claims.PUT("/:id", s.UpdateClaim)
		claims.DELETE("/:id", s.DeleteClaim)
		claims.DELETE("", s.DeleteClaims)

		api.GET("/export/claims.xlsx", s.ExportClaims)
		api.GET("/villages", s.ListVillages)
	}
	return router
}

// Healthz reports whether the database answers.
func (s *Server) Healthz(c *gin.Context) {
	if s.cfg.Health != nil {
		if err := s.cfg.Health(c.Request.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
