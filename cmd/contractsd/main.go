package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/contractintel/contract-intel/internal/chunker"
	"github.com/contractintel/contract-intel/internal/classifier"
	"github.com/contractintel/contract-intel/internal/common"
	"github.com/contractintel/contract-intel/internal/export"
	"github.com/contractintel/contract-intel/internal/fallback"
	"github.com/contractintel/contract-intel/internal/llm"
	"github.com/contractintel/contract-intel/internal/llm/gemini"
	"github.com/contractintel/contract-intel/internal/pipeline"
	"github.com/contractintel/contract-intel/internal/server"
	"github.com/contractintel/contract-intel/internal/store"
	"github.com/contractintel/contract-intel/internal/textextract"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("main.config_invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("main.store_open_error", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	logger.Info("main.store_ready", "backend", cfg.Store.Backend)

	var ai llm.ChunkExtractor
	if cfg.LLM.Enabled {
		ai = gemini.NewClient(gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
			MaxChars:    cfg.LLM.MaxChars,
			RateLimit:   rate.Limit(cfg.LLM.RateLimit),
			RateBurst:   cfg.LLM.RateBurst,
		}, logger)
		logger.Info("main.ai_enabled", "model", cfg.LLM.Model)
	} else {
		logger.Info("main.ai_disabled", "mode", "fallback-only")
	}

	ch, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		logger.Error("main.chunker_config_error", "error", err)
		os.Exit(1)
	}

	orch := pipeline.NewOrchestrator(
		st,
		textextract.NewExtractor(textextract.Config{
			Pdftotext: cfg.Text.Pdftotext,
			MaxBytes:  cfg.Text.MaxBytes,
		}, logger),
		ai,
		fallback.New(logger),
		ch,
		classifier.New(),
		pipeline.Config{
			Workers:     cfg.Pipeline.Workers,
			CallTimeout: cfg.Pipeline.CallTimeout,
		},
		logger,
	)
	queue := pipeline.NewQueue(orch, logger,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithQueueSize(cfg.Pipeline.QueueSize),
		pipeline.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	srv := server.New(st, queue, export.NewService(logger), int64(cfg.Server.MaxUploadBytes), logger)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("main.http_listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main.http_serve_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("main.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("main.http_shutdown_error", "error", err)
	}
	// Drain queued jobs before releasing the store.
	queue.Shutdown(shutdownCtx)
	logger.Info("main.stopped")
}

// openStore picks the persistence backend. The returned cleanup is always
// safe to call.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (store.ContractStore, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
			TTL:      cfg.Store.RedisTTL,
		}, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return rs, func() { _ = rs.Close() }, nil
	case "postgres":
		ps, err := store.OpenPostgres(ctx, store.PostgresConfig{
			DSN:              cfg.Store.DSN,
			MaxConns:         cfg.Store.MaxConns,
			MinConns:         cfg.Store.MinConns,
			MaxConnLifetime:  cfg.Store.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Store.MaxConnIdleTime,
			DialTimeout:      cfg.Store.DialTimeout,
			StatementTimeout: cfg.Store.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return ps, ps.Close, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}
