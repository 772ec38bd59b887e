package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/pw-import/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/pw-import/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/pw-import/internal/adapter/kafka"
	"github.com/couchcryptid/pw-import/internal/adapter/mesowest"
	"github.com/couchcryptid/pw-import/internal/adapter/sqlite"
	"github.com/couchcryptid/pw-import/internal/adapter/wyoming"
	"github.com/couchcryptid/pw-import/internal/config"
	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
	"github.com/couchcryptid/pw-import/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("import failed", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // deferred stop already called
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	var soundings domain.SoundingSource = wyoming.NewClient(cfg.WyomingBaseURL, cfg.HTTPTimeout, metrics, logger)
	if cfg.SoundingCacheSize > 0 {
		soundings = wyoming.NewCachedSource(soundings, cfg.SoundingCacheSize, metrics)
	}
	surface := mesowest.NewClient(cfg.MesoWestBaseURL, cfg.MesoWestToken, cfg.HTTPTimeout, metrics, logger)

	input := csvfile.InputFile{Path: cfg.InputPath}
	output := csvfile.OutputFile{Path: cfg.OutputPath}

	// The output file is the resume cursor unless a SQLite cursor is configured.
	var cursor pipeline.Cursor = output
	if cfg.CursorDB != "" {
		db, err := sqlite.Open(ctx, cfg.CursorDB)
		if err != nil {
			return err
		}
		defer db.Close()
		cursor = sqlite.NewCursorStore(db, sqlite.DefaultCursorName, output)
		logger.Info("sqlite cursor enabled", "path", cfg.CursorDB)
	}

	var publisher pipeline.RowPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka fan-out enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	builder := pipeline.NewBuilder(soundings, surface, output, publisher, pipeline.BuilderConfig{
		Stations:       [2]string{cfg.SoundingStations[0], cfg.SoundingStations[1]},
		SurfaceStation: cfg.SurfaceStation,
		Retry:          pipeline.RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay},
	}, logger, metrics)

	var barOut io.Writer = io.Discard
	if cfg.ShowProgress {
		barOut = os.Stderr
	}
	progress := observability.NewProgress(barOut, "importing", metrics.Progress)

	p := pipeline.New(input, cursor, builder, progress, logger, metrics)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	written, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("import interrupted", "written", written)
		}
		return err
	}

	logger.Info("import complete",
		"written", written,
		"output", cfg.OutputPath,
		"stations", cfg.SoundingStations,
		"surface_station", cfg.SurfaceStation,
	)
	return nil
}
