// Command breakpoint runs the match prediction pipeline: scraping raw
// results, canonicalizing them, building leak-checked features, training and
// calibrating the classifier, evaluating it against the promotion gates, and
// serving predictions over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/breakpoint/internal/adapters/http/api"
	app "github.com/okian/breakpoint/internal/app"
	"github.com/okian/breakpoint/internal/clean"
	"github.com/okian/breakpoint/internal/config"
	"github.com/okian/breakpoint/internal/ingest"
	"github.com/okian/breakpoint/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const usage = `usage: breakpoint <command> [--config <dir>]

commands:
  ingest          scrape raw result tables into the raw data directory
  clean           canonicalize raw data into the processed match table
  build-features  replay matches through the rating engine and emit features
  train           run cross-validated training and persist model artifacts
  evaluate        recompute the metric report against the promotion gates
  serve           load artifacts and serve predictions over HTTP
`

func main() {
	if len(os.Args) < 2 {
		os.Stderr.WriteString(usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configDir := fs.String("config", "config", "configuration directory")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configDir)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, command, cfg); err != nil {
		log.Error(ctx, "command failed",
			logger.String("command", command), logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	log := logger.Get()
	svc := app.New(cfg, app.WithLogger(log))

	switch command {
	case "ingest":
		scraper := ingest.New(log.Named("ingest"))
		return scraper.Run(ctx, cfg.Data.SourceURLs, cfg.Data.SourceFiles, cfg.Data.RawDir)

	case "clean":
		cleaner := clean.New(log.Named("clean"))
		sum, err := cleaner.Run(ctx, cfg.Data.RawDir, cfg.Data.ProcessedDir)
		if err != nil {
			return err
		}
		log.Info(ctx, "clean complete",
			logger.Int("raw_rows", sum.RawRows),
			logger.Int("kept", sum.Kept),
			logger.Int("dropped", sum.Dropped),
			logger.Int("duplicates", sum.Duplicates),
			logger.Int("players", sum.Players))
		return nil

	case "build-features":
		_, err := svc.BuildFeatures(ctx)
		return err

	case "train":
		_, err := svc.Train(ctx)
		return err

	case "evaluate":
		report, err := svc.Evaluate(ctx)
		if err != nil {
			return err
		}
		if !report.Pass() {
			log.Warn(ctx, "promotion gates missed; model not promotable")
		}
		return nil

	case "serve":
		return serve(ctx, cfg, svc)

	default:
		os.Stderr.WriteString(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func serve(ctx context.Context, cfg *config.Config, svc *app.Service) error {
	log := logger.Get()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Model.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Model.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
