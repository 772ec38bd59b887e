package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
)

// ErrNoPairedRow is returned when the row after the indexed one does not exist.
var ErrNoPairedRow = errors.New("no paired input row")

// RowAppender writes a finished row to the master data file.
type RowAppender interface {
	Append(ctx context.Context, row domain.OutputRow) error
}

// RowPublisher fans a finished row out to another sink.
type RowPublisher interface {
	Publish(ctx context.Context, row domain.OutputRow) error
}

// BuilderConfig names the stations a Builder queries and how it retries.
type BuilderConfig struct {
	Stations       [2]string
	SurfaceStation string
	Retry          RetryPolicy
	Clock          clockwork.Clock // nil means the real clock
}

// Builder produces and appends one output row per call.
type Builder struct {
	soundings domain.SoundingSource
	surface   domain.SurfaceSource
	appender  RowAppender
	publisher RowPublisher

	stations       [2]string
	surfaceStation string
	retry          RetryPolicy
	clock          clockwork.Clock

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a Builder. publisher may be nil.
func NewBuilder(soundings domain.SoundingSource, surface domain.SurfaceSource, appender RowAppender, publisher RowPublisher,
	cfg BuilderConfig, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Builder{
		soundings:      soundings,
		surface:        surface,
		appender:       appender,
		publisher:      publisher,
		stations:       cfg.Stations,
		surfaceStation: cfg.SurfaceStation,
		retry:          cfg.Retry,
		clock:          clock,
		logger:         logger,
		metrics:        metrics,
	}
}

// Process builds the row for records[idx] and appends it. A failed publish
// is logged; the appended row stands.
func (b *Builder) Process(ctx context.Context, records []domain.InputRecord, idx int) (domain.OutputRow, error) {
	row, err := b.Build(ctx, records, idx)
	if err != nil {
		return domain.OutputRow{}, err
	}

	if err := b.appender.Append(ctx, row); err != nil {
		return domain.OutputRow{}, err
	}
	b.metrics.RowsAppended.Inc()

	if b.publisher != nil {
		if err := b.publisher.Publish(ctx, row); err != nil {
			b.logger.Warn("publish row failed", "date", domain.FormatDate(row.Date), "error", err)
		} else {
			b.metrics.RowsPublished.Inc()
		}
	}
	return row, nil
}

// Build assembles the output row dated by records[idx]. The readings come
// from the paired row records[idx+1].
func (b *Builder) Build(ctx context.Context, records []domain.InputRecord, idx int) (domain.OutputRow, error) {
	if idx < 0 || idx+1 >= len(records) {
		return domain.OutputRow{}, fmt.Errorf("%w: index %d of %d rows", ErrNoPairedRow, idx, len(records))
	}
	date := records[idx].Date
	paired := records[idx+1]

	target, err := paired.ObservedAt()
	if err != nil {
		return domain.OutputRow{}, err
	}

	first, second, err := b.FetchSoundings(ctx, date)
	if err != nil {
		return domain.OutputRow{}, err
	}

	obs, err := b.FetchSurface(ctx, date, target)
	if err != nil {
		return domain.OutputRow{}, err
	}

	return domain.BuildOutputRow(date, paired, obs, first, second), nil
}

// FetchSoundings fetches both stations' soundings for date. An HTTP failure
// anywhere retries the whole two-station fetch.
func (b *Builder) FetchSoundings(ctx context.Context, date time.Time) (domain.Sounding, domain.Sounding, error) {
	var first, second domain.Sounding
	err := b.withRetry(ctx, "sounding fetch", func(ctx context.Context) error {
		var err error
		if first, err = b.fetchSounding(ctx, b.stations[0], date); err != nil {
			return err
		}
		second, err = b.fetchSounding(ctx, b.stations[1], date)
		return err
	})
	if err != nil {
		return domain.Sounding{}, domain.Sounding{}, err
	}
	return first, second, nil
}

// FetchSurface fetches the surface series for date and returns the
// observation closest in clock time to target.
func (b *Builder) FetchSurface(ctx context.Context, date, target time.Time) (domain.SurfaceObservation, error) {
	var obs []domain.SurfaceObservation
	err := b.withRetry(ctx, "surface fetch", func(ctx context.Context) error {
		var err error
		obs, err = b.surface.Observations(ctx, b.surfaceStation, date)
		return err
	})
	if err != nil {
		return domain.SurfaceObservation{}, fmt.Errorf("surface observations: %w", err)
	}
	return domain.ClosestObservation(obs, target, date)
}

func (b *Builder) fetchSounding(ctx context.Context, station string, date time.Time) (domain.Sounding, error) {
	noon, err := b.lookup(ctx, station, domain.NoonLaunch(date))
	if err != nil {
		return domain.Sounding{}, err
	}
	midnight, err := b.lookup(ctx, station, domain.MidnightLaunch(date))
	if err != nil {
		return domain.Sounding{}, err
	}
	return domain.Sounding{Station: station, Date: date, Noon: noon, Midnight: midnight}, nil
}

// lookup maps a "no data" answer to the NaN sentinel.
func (b *Builder) lookup(ctx context.Context, station string, at time.Time) (domain.PrecipitableWater, error) {
	pw, err := b.soundings.PrecipitableWater(ctx, station, at)
	if errors.Is(err, domain.ErrNoData) {
		b.metrics.SoundingsMissing.WithLabelValues(station).Inc()
		b.logger.Debug("sounding missing, using sentinel", "station", station, "time", at)
		return domain.MissingPW(), nil
	}
	if err != nil {
		return domain.PrecipitableWater{}, fmt.Errorf("sounding %s: %w", station, err)
	}
	return domain.PrecipitableWater{Value: pw}, nil
}
