// Command callgymd serves the training API: session lifecycle, realtime
// credential minting, scenario administration, health, and metrics.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/callgym/callgym-core/core/analysis"
	llmopenai "github.com/callgym/callgym-core/core/llms/openai"
	"github.com/callgym/callgym-core/core/realtime"
	rtopenai "github.com/callgym/callgym-core/core/realtime/openai"
	"github.com/callgym/callgym-core/internal/config"
	"github.com/callgym/callgym-core/internal/server"
	"github.com/callgym/callgym-core/store"
	"github.com/callgym/callgym-core/store/memory"
	"github.com/callgym/callgym-core/store/postgres"
	"github.com/callgym/callgym-core/training"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// secretMinter bridges the realtime client's credential type onto the wire
// shape the API serves.
type secretMinter struct {
	client *rtopenai.Client
}

func (m secretMinter) MintClientSecret(ctx context.Context, opts ...realtime.SessionOption) (server.ClientSecret, error) {
	secret, err := m.client.MintClientSecret(ctx, opts...)
	if err != nil {
		return server.ClientSecret{}, err
	}
	return server.ClientSecret{Value: secret.Value, ExpiresAt: secret.ExpiresAt}, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		pgStore, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		st = pgStore
	} else {
		logger.Warn("no database configured; records will not survive restarts")
		st = memory.NewStore()
	}

	pipeline := analysis.NewPipeline(
		llmopenai.NewClient(cfg.OpenAIAPIKey, cfg.AnalysisModel),
		analysis.WithTemperature(cfg.AnalysisTemperature),
	)
	svc := training.NewService(st, pipeline)

	rtClient, err := rtopenai.NewClient(cfg.OpenAIAPIKey, rtopenai.WithModel(cfg.RealtimeModel))
	if err != nil {
		logger.Error("failed to build realtime client", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	server.New(svc, st, secretMinter{client: rtClient},
		server.WithVAD(cfg.VAD()),
		server.WithDefaultVoice(cfg.Voice),
	).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(mux, "callgymd"),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
