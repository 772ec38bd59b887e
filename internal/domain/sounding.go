package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MissingSentinel is written in place of a sounding value the archive has no data for.
const MissingSentinel = "NaN"

// Launch hours used for each date: 12Z on the date and 00Z the day after.
const (
	NoonLaunchHour     = 12
	MidnightLaunchHour = 0
)

var (
	// ErrNoData reports that a remote source has no record for the request.
	ErrNoData = errors.New("no data available")

	// ErrNoObservations is returned when there is nothing to match against.
	ErrNoObservations = errors.New("no observations")
)

// HTTPError wraps a transport failure or an unsuccessful HTTP status from a
// remote source. These failures are transient and may be retried.
type HTTPError struct {
	Source     string
	StatusCode int // 0 for transport errors
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: http request: %v", e.Source, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// IsRetryable reports whether err came from the HTTP layer.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// SoundingSource looks up the precipitable water of a single launch.
type SoundingSource interface {
	// PrecipitableWater returns the value in mm for the launch at the given
	// time, or ErrNoData when the archive has no sounding for it.
	PrecipitableWater(ctx context.Context, station string, at time.Time) (float64, error)
}

// PrecipitableWater is a sounding value in mm, or the missing sentinel.
type PrecipitableWater struct {
	Value   float64
	Missing bool
}

// MissingPW returns the sentinel value.
func MissingPW() PrecipitableWater {
	return PrecipitableWater{Value: math.NaN(), Missing: true}
}

// String renders the value as written to the output file.
func (p PrecipitableWater) String() string {
	if p.Missing || math.IsNaN(p.Value) {
		return MissingSentinel
	}
	return FormatFloat(p.Value)
}

// Sounding holds both launches used for one station and date.
type Sounding struct {
	Station  string
	Date     time.Time
	Noon     PrecipitableWater // 12Z on Date
	Midnight PrecipitableWater // 00Z on Date+1
}

// NoonLaunch returns the 12Z launch time for a date.
func NoonLaunch(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, NoonLaunchHour, 0, 0, 0, time.UTC)
}

// MidnightLaunch returns the 00Z launch time on the day after date.
func MidnightLaunch(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d+1, MidnightLaunchHour, 0, 0, 0, time.UTC)
}

// FormatFloat renders a float the way the master data file has always stored
// them: shortest representation, with ".0" kept on whole numbers.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return MissingSentinel
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// RoundTo rounds v to the given number of decimal places. Rounding is
// applied to the exact binary value with ties to even, so 2.675 (stored as
// 2.67499...) becomes 2.67 and 0.125 becomes 0.12.
func RoundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
