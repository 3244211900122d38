package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/fra-claims/internal/app"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel, true)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Config{
		Pipeline:       a.Pipeline,
		Staging:        a.Staging,
		Claims:         a.Claims,
		Villages:       a.Villages,
		Importer:       a.Importer,
		Exporter:       a.Exporter,
		Health:         a.Health,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to build http server", "error", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators; flips to NOT_SERVING while draining.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
		}
	}()

	go func() {
		logger.Info("fra-claimsd listening", "http_addr", cfg.Server.HTTPAddr, "grpc_addr", cfg.Server.GRPCAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	go sweepStaging(ctx, a, cfg.Staging.ArtifactTTL, logger)

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	a.Close(shutdownCtx)
}

// minSweepInterval bounds how often the staging directory is scanned.
const minSweepInterval = 30 * time.Second

func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, minSweepInterval)
}

// sweepStaging removes abandoned uploads older than ttl.
func sweepStaging(ctx context.Context, a *app.App, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval(ttl))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Staging.Sweep(ttl); n > 0 {
				logger.Info("staging.sweep", "removed", n)
			}
		}
	}
}
