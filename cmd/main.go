package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okalkan/defter/internal/config"
	"github.com/okalkan/defter/internal/httpapi"
	"github.com/okalkan/defter/internal/remote"
	"github.com/okalkan/defter/internal/service/registry"
	"github.com/okalkan/defter/internal/storage/kv"
	"github.com/okalkan/defter/internal/storage/memory"
	pgstore "github.com/okalkan/defter/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// Remote mirroring: one async pusher per configured endpoint.
	var pushers []*remote.Async
	for mode, base := range cfg.Sync.Endpoints {
		if base == "" {
			continue
		}
		a := remote.NewAsync(remote.NewClient(base, cfg.Sync.Timeout()), remote.Mode(mode), cfg.Sync.Timeout(), logger)
		pushers = append(pushers, a)
		logger.Info("remote sync enabled", "mode", mode, "endpoint", base)
	}
	var sync httpapi.Syncer
	if len(pushers) > 0 {
		sync = fanout(pushers)
	}

	var store httpapi.Store
	var flush func(context.Context)

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		// In-memory store warmed from the local snapshot file and flushed
		// back on shutdown.
		mem := memory.New()
		local, err := kv.Open(cfg.LocalDBPath)
		if err != nil {
			logger.Error("failed to open local database", "path", cfg.LocalDBPath, "err", err)
			os.Exit(1)
		}
		defer local.Close()
		snap, err := local.LoadSnapshot(ctx)
		if err != nil {
			logger.Error("failed to load local snapshot", "err", err)
			os.Exit(1)
		}
		if err := mem.Restore(ctx, snap); err != nil {
			logger.Error("failed to restore snapshot", "err", err)
			os.Exit(1)
		}
		flush = func(ctx context.Context) {
			snap, err := mem.Snapshot(ctx)
			if err != nil {
				logger.Error("snapshot failed", "err", err)
				return
			}
			if err := local.SaveSnapshot(ctx, snap); err != nil {
				logger.Error("failed to persist snapshot", "err", err)
				return
			}
			logger.Info("snapshot persisted", "path", local.Path())
		}
		store = mem
		logger.Info("storage backend: memory", "local_db", cfg.LocalDBPath)
	}

	// Seed the default safes on first run.
	if err := registry.New(store, store, nil, logger).EnsureDefaultSafes(ctx); err != nil {
		logger.Error("failed to seed default safes", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(store, sync, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("defter service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	// Let in-flight remote pushes finish, then flush local state.
	for _, p := range pushers {
		p.Wait()
	}
	if flush != nil {
		ctxFlush, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		flush(ctxFlush)
	}
}

// fanout forwards every push to all configured endpoints.
type fanout []*remote.Async

func (f fanout) Create(collection string, record any) {
	for _, a := range f {
		a.Create(collection, record)
	}
}

func (f fanout) Update(collection string, record any) {
	for _, a := range f {
		a.Update(collection, record)
	}
}

func (f fanout) Delete(collection string, id int64) {
	for _, a := range f {
		a.Delete(collection, id)
	}
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
