package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
)

// ErrResumeDateNotFound is returned when the last written date does not
// appear in the input file.
var ErrResumeDateNotFound = errors.New("resume date not found in input")

// InputLoader reads every record of the manual observation file.
type InputLoader interface {
	Load(ctx context.Context) ([]domain.InputRecord, error)
}

// Cursor tracks the date of the last row written to the master data file.
type Cursor interface {
	LastDate(ctx context.Context) (time.Time, error)
	Advance(ctx context.Context, date time.Time) error
}

// RowProcessor builds and appends the output row for records[idx].
type RowProcessor interface {
	Process(ctx context.Context, records []domain.InputRecord, idx int) (domain.OutputRow, error)
}

// Progress receives percentage increments as rows are written.
type Progress interface {
	Advance(pct float64)
	Finish()
}

// Status is a point-in-time snapshot of a run.
type Status struct {
	Running   bool   `json:"running"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	LastDate  string `json:"last_date,omitempty"`
}

// Pipeline resumes after the last written date and appends one row per
// remaining input record.
type Pipeline struct {
	input    InputLoader
	cursor   Cursor
	rows     RowProcessor
	progress Progress
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline with the given stages and observability.
func New(input InputLoader, cursor Cursor, rows RowProcessor, progress Progress, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		input:    input,
		cursor:   cursor,
		rows:     rows,
		progress: progress,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the run has located its resume position.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not located its resume position yet")
	}
	return nil
}

// Status returns a copy of the current run status.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run appends rows for every input record after the resume date, except the
// last, which has no paired row. It returns the number of rows written.
// Any error stops the run; rows already written stay written.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.setStatus(func(s *Status) { s.Running = true })
	defer p.setStatus(func(s *Status) { s.Running = false })

	records, err := p.input.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load input: %w", err)
	}

	last, err := p.cursor.LastDate(ctx)
	if err != nil {
		return 0, fmt.Errorf("resume position: %w", err)
	}

	k, ok := domain.IndexByDate(records)[domain.DateKey(last)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrResumeDateNotFound, domain.FormatDate(last))
	}

	start, end := k+1, len(records)-2
	total := max(end-start+1, 0)
	p.setStatus(func(s *Status) {
		s.Total = total
		s.LastDate = domain.FormatDate(last)
	})
	p.ready.Store(true)

	p.logger.Info("pipeline started",
		"last_date", domain.FormatDate(last),
		"input_rows", len(records),
		"pending", total,
	)
	if total == 0 {
		p.logger.Info("master data is up to date")
		return 0, nil
	}

	step := 100 / float64(total)
	written := 0
	for i := start; i <= end; i++ {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err, "written", written)
			return written, err
		}

		row, err := p.rows.Process(ctx, records, i)
		if err != nil {
			return written, fmt.Errorf("row %s (line %d): %w", domain.FormatDate(records[i].Date), records[i].Line, err)
		}
		if err := p.cursor.Advance(ctx, row.Date); err != nil {
			return written, fmt.Errorf("advance cursor: %w", err)
		}

		written++
		p.progress.Advance(step)
		p.setStatus(func(s *Status) {
			s.Processed = written
			s.LastDate = domain.FormatDate(row.Date)
		})
		p.logger.Debug("row appended", "date", domain.FormatDate(row.Date), "written", written, "pending", total-written)
	}

	p.progress.Finish()
	p.logger.Info("pipeline finished", "written", written)
	return written, nil
}

func (p *Pipeline) setStatus(update func(*Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.status)
}
