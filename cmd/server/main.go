// Package main is the entrypoint for the brandguard API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/ai"
	"github.com/kiranshivaraju/brandguard/internal/api"
	"github.com/kiranshivaraju/brandguard/internal/api/handler"
	mw "github.com/kiranshivaraju/brandguard/internal/api/middleware"
	"github.com/kiranshivaraju/brandguard/internal/audit"
	"github.com/kiranshivaraju/brandguard/internal/cache"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/internal/knowledge"
	"github.com/kiranshivaraju/brandguard/internal/logging"
	"github.com/kiranshivaraju/brandguard/internal/media"
	"github.com/kiranshivaraju/brandguard/internal/store"
)

const (
	shutdownTimeout     = 30 * time.Second
	startupProbeTimeout = 5 * time.Second
)

func main() {
	slog.SetDefault(logging.New(os.Stdout, "info"))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.Server.LogLevel))
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create AI provider
	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())
	probeModel(ctx, aiProvider)

	// 6. Build the knowledge base
	pgStore := store.NewPostgresStore(pool)
	kb := knowledge.New(pgStore, redisCache, knowledge.Options{
		MinScore:     cfg.Knowledge.MinScore,
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
		CacheTTL:     cfg.Redis.RetrievalCacheTTL,
	})
	if cfg.Knowledge.IngestOnStart {
		stats, err := kb.Ingest(ctx, cfg.Knowledge.Dir)
		if err != nil {
			return fmt.Errorf("ingest knowledge base: %w", err)
		}
		slog.Info("knowledge base ingested",
			"sources", stats.Sources, "chunks", stats.Chunks, "pruned", stats.Pruned)
	}
	if !kb.Ready(ctx) {
		slog.Warn("knowledge base is empty, audits will run without regulatory context",
			"dir", cfg.Knowledge.Dir)
	}

	// 7. Wire the audit service
	runner := media.ExecRunner{}
	svc := audit.NewService(audit.Collaborators{
		Fetcher: media.NewDownloader(cfg.Media.YtDlpBinary, cfg.Audit.DownloadsDir, runner),
		Transcriber: media.NewTranscriber(cfg.Media.FFmpegBinary, cfg.Media.WhisperBinary, media.WhisperOptions{
			Model:    cfg.Media.WhisperModel,
			Language: cfg.Media.WhisperLanguage,
		}, runner),
		Extractor: media.NewOCR(cfg.Media.FFmpegBinary, cfg.Media.TesseractBinary, media.OCROptions{
			Language:   cfg.Media.TesseractLang,
			Interval:   cfg.Media.OCRSampleInterval,
			FrameWidth: cfg.Media.OCRFrameWidth,
			MaxFrames:  cfg.Media.OCRMaxFrames,
		}, runner),
		Retriever: kb,
		Judge:     aiProvider,
	}, audit.Options{
		RetentionTTL:  cfg.Audit.RetentionTTL,
		MaxConcurrent: cfg.Audit.MaxConcurrentJobs,
		TopK:          cfg.Audit.RetrievalTopK,
		JudgeTimeout:  cfg.AI.InferenceTimeout,
	})

	// 8. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.Redis.RateLimitPerMin),

		HealthHandler: healthHandler(pgStore, redisCache, aiProvider, kb, svc),
		SubmitHandler: handler.NewSubmitHandler(svc),
		StatusHandler: handler.NewStatusHandler(svc),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := svc.Wait(shutdownCtx); err != nil {
		slog.Warn("audits still running at shutdown", "active", svc.Stats().Active, "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// probeModel logs a warning when the model backend is unreachable. The
// server still starts so the backend can come up later.
func probeModel(ctx context.Context, p pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		slog.Warn("model backend unreachable, audits will fail until it is up", "error", err)
	}
}
