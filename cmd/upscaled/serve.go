package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"upscaled/internal/cache"
	"upscaled/internal/catalog"
	"upscaled/internal/config"
	"upscaled/internal/fetch"
	"upscaled/internal/httpapi"
	"upscaled/internal/logging"
	"upscaled/internal/manager"
	"upscaled/internal/upscaler"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	config.Config
	execArgs    string
	corsOrigins string
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			over := f.Config
			over.WeightsDir = g.weightsDir
			over.WeightsPattern = g.weightsPattern
			over.ExecArgs = splitCSV(f.execArgs)
			over.CORSOrigins = splitCSV(f.corsOrigins)
			cfg, err := resolveConfig(g.configPath, over)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Addr, "addr", "", "HTTP listen address, e.g. :8080 (env UPSCALED_ADDR)")
	fl.StringVar(&f.CacheDir, "cache-dir", "", "Directory for cached results")
	fl.StringVar(&f.CacheBackend, "cache-backend", "", "Cache store: fs or sqlite")
	fl.IntVar(&f.CacheMaxEntries, "cache-max-entries", 0, "Evict least recently used results beyond this count (0=unbounded)")
	fl.StringVar(&f.Backend, "backend", "", "Upscaler backend: resample or exec")
	fl.StringVar(&f.ExecBin, "exec-bin", "", "Upscaler binary for the exec backend")
	fl.StringVar(&f.execArgs, "exec-args", "", "Comma separated argument template for the exec backend")
	fl.IntVar(&f.MaxWorkers, "max-workers", 0, "Concurrent computations across all instances (0=NumCPU)")
	fl.IntVar(&f.MaxQueueDepth, "max-queue-depth", 0, "Requests allowed to wait for a worker")
	fl.Int64Var(&f.MaxWaitMS, "max-wait-ms", 0, "Longest wait for admission before responding too busy")
	fl.Int64Var(&f.FetchTimeoutMS, "fetch-timeout-ms", 0, "Timeout for fetching URL inputs")
	fl.Int64Var(&f.MaxInputBytes, "max-input-bytes", 0, "Largest accepted input image")
	fl.Int64Var(&f.MaxInputPixels, "max-input-pixels", 0, "Largest accepted input width*height")
	fl.Int64Var(&f.MaxOutputPixels, "max-output-pixels", 0, "Largest produced width*height")
	fl.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.LogFormat, "log-format", "", "json or console")
	fl.BoolVar(&f.CORSEnabled, "cors-enabled", false, "Enable CORS middleware")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma separated allowed origins")
	fl.BoolVar(&f.Swagger, "swagger", false, "Serve Swagger UI under /swagger/")
	return cmd
}

// app owns the long-lived components behind the HTTP server.
type app struct {
	mgr   *manager.Manager
	cache *cache.Cache
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	cat, err := catalog.New(cfg.WeightsDir, cfg.WeightsPattern)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	c, err := cache.Open(ctx, cfg.CacheBackend, cfg.CacheDir, cache.Options{
		MaxEntries: cfg.CacheMaxEntries,
		Logger:     log.With().Str("component", "cache").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	backend, err := upscaler.NewBackend(upscaler.Config{
		Backend:  cfg.Backend,
		ExecBin:  cfg.ExecBin,
		ExecArgs: cfg.ExecArgs,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("backend: %w", err)
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Catalog: cat,
		Cache:   c,
		Backend: backend,
		Fetcher: fetch.New(fetch.Options{
			Timeout:  time.Duration(cfg.FetchTimeoutMS) * time.Millisecond,
			MaxBytes: cfg.MaxInputBytes,
			Logger:   log.With().Str("component", "fetch").Logger(),
		}),
		CacheBackend:    cfg.CacheBackend,
		CacheMaxEntries: cfg.CacheMaxEntries,
		MaxWorkers:      cfg.MaxWorkers,
		MaxQueueDepth:   cfg.MaxQueueDepth,
		MaxWait:         time.Duration(cfg.MaxWaitMS) * time.Millisecond,
		MaxInputPixels:  cfg.MaxInputPixels,
		MaxOutputPixels: cfg.MaxOutputPixels,
		Logger:          log.With().Str("component", "manager").Logger(),
		Publisher:       manager.NewLogPublisher(log.With().Str("component", "events").Logger()),
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("manager: %w", err)
	}
	if !cat.AnyAvailable() {
		log.Warn().Str("weights_dir", cat.Dir()).Msg("no weight files found; /readyz will report not ready")
	}
	return &app{mgr: mgr, cache: c}, nil
}

func (a *app) Close() error {
	return errors.Join(a.mgr.Close(), a.cache.Close())
}

func configureHTTP(ctx context.Context, cfg config.Config, log zerolog.Logger) {
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxUploadMemory(cfg.MaxInputBytes)
	httpapi.SetMaxUploadBytes(cfg.MaxInputBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
	httpapi.SetSwaggerEnabled(cfg.Swagger)
	httpapi.SetBaseContext(ctx)
}

// serve runs the HTTP server until ctx is cancelled, then drains it and
// releases the manager and cache. Handlers see their base context cancelled
// only once the drain has finished or timed out.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	handlersCtx, stopHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHandlers()
	g, gctx := errgroup.WithContext(ctx)
	configureHTTP(handlersCtx, cfg, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(a.mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("weights_dir", cfg.WeightsDir).
			Str("cache_backend", cfg.CacheBackend).Str("backend", cfg.Backend).Msg("upscaled listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutCtx)
		// stragglers past the timeout answer 503
		stopHandlers()
		if err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
			return err
		}
		return nil
	})
	err = g.Wait()
	if cerr := a.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("close")
		err = errors.Join(err, cerr)
	}
	log.Info().Msg("upscaled stopped")
	return err
}
