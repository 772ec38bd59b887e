package domain

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// SurfaceObservation is one reading from the surface station.
type SurfaceObservation struct {
	Time             time.Time
	RelativeHumidity float64 // percent
	Temperature      float64
}

// SurfaceSource returns the surface observations recorded on a date.
type SurfaceSource interface {
	Observations(ctx context.Context, station string, day time.Time) ([]SurfaceObservation, error)
}

// Combine places the clock reading of tod on the calendar date of day.
func Combine(day, tod time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), tod.Nanosecond(), day.Location())
}

// Closest returns the index of the time whose clock reading is nearest to
// target once both are placed on day. Ties go to the lowest index.
func Closest(times []time.Time, target, day time.Time) (int, error) {
	if len(times) == 0 {
		return -1, ErrNoObservations
	}
	ref := Combine(day, target)
	diffs := make([]float64, len(times))
	for i, t := range times {
		diffs[i] = math.Abs(float64(Combine(day, t).Sub(ref)))
	}
	return floats.MinIdx(diffs), nil
}

// ClosestObservation picks the observation nearest in clock time to target.
func ClosestObservation(obs []SurfaceObservation, target, day time.Time) (SurfaceObservation, error) {
	times := make([]time.Time, len(obs))
	for i, o := range obs {
		times[i] = o.Time
	}
	i, err := Closest(times, target, day)
	if err != nil {
		return SurfaceObservation{}, err
	}
	return obs[i], nil
}
