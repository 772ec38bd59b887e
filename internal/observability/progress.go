package observability

import (
	"io"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
)

// progressSteps gives the bar 0.1% resolution.
const progressSteps = 1000

// Progress renders run completion as a terminal bar and mirrors it into a gauge.
type Progress struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	gauge   prometheus.Gauge
	percent float64
}

// NewProgress creates a progress bar writing to w. Pass io.Discard to hide it.
func NewProgress(w io.Writer, description string, gauge prometheus.Gauge) *Progress {
	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	return &Progress{bar: bar, gauge: gauge}
}

// Advance adds pct percentage points to the completed share.
func (p *Progress) Advance(pct float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.percent += pct
	shown := math.Min(p.percent, 100)
	_ = p.bar.Set(int(math.Round(shown * progressSteps / 100)))
	if p.gauge != nil {
		p.gauge.Set(shown)
	}
}

// Percent returns the accumulated completion.
func (p *Progress) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

// Finish completes the bar.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
