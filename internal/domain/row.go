package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// OutputFields is the number of data columns after the date in the output file.
const OutputFields = 17

// SurfaceTimeLayout is how the matched surface observation time is written.
const SurfaceTimeLayout = "15:04"

// ColumnNames labels the data columns of an output row, in file order.
var ColumnNames = [OutputFields]string{
	"condition",
	"surface_rh",
	"pw12_station1",
	"pw00_station1",
	"pw12_station2",
	"pw00_station2",
	"observer_time",
	"surface_time",
	"surface_temp",
	"te_sky",
	"flir_sky",
	"ames1_sky",
	"ames2_sky",
	"te_ground",
	"flir_ground",
	"ames1_ground",
	"ames2_ground",
}

// ErrMalformedOutput is returned when a line of the output file does not
// have the expected shape.
var ErrMalformedOutput = errors.New("malformed output line")

// OutputRow is one line of the master data file.
type OutputRow struct {
	Date        time.Time
	Fields      [OutputFields]string
	Stations    [2]string
	ProcessedAt time.Time
}

// BuildOutputRow assembles the output fields from the paired input record,
// the matched surface observation, and both stations' soundings.
func BuildOutputRow(date time.Time, rec InputRecord, surface SurfaceObservation, first, second Sounding) OutputRow {
	return OutputRow{
		Date: date,
		Fields: [OutputFields]string{
			rec.Condition.First(),
			FormatFloat(surface.RelativeHumidity),
			first.Noon.String(),
			first.Midnight.String(),
			second.Noon.String(),
			second.Midnight.String(),
			rec.ObserverTime.First(),
			surface.Time.Format(SurfaceTimeLayout),
			FormatFloat(RoundTo(surface.Temperature, 2)),
			rec.TESky.First(),
			rec.FLIRSky.First(),
			rec.AMES1Sky.First(),
			rec.AMES2Sky.First(),
			rec.TEGround.First(),
			rec.FLIRGround.First(),
			rec.AMES1Ground.First(),
			rec.AMES2Ground.First(),
		},
		Stations:    [2]string{first.Station, second.Station},
		ProcessedAt: clock.Now(),
	}
}

// Line renders the row as written to the output file, newline included.
func (r OutputRow) Line() string {
	var b strings.Builder
	b.WriteString(FormatDate(r.Date))
	b.WriteByte(',')
	for _, f := range r.Fields {
		b.WriteString(f)
		b.WriteByte(',')
	}
	b.WriteByte('\n')
	return b.String()
}

// Named returns the fields keyed by column name.
func (r OutputRow) Named() map[string]string {
	m := make(map[string]string, OutputFields)
	for i, name := range ColumnNames {
		m[name] = r.Fields[i]
	}
	return m
}

// ParseOutputLine splits a line of the output file back into its date and
// data fields. The trailing comma is optional.
func ParseOutputLine(line string) (time.Time, []string, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, ",")
	if n := len(parts); n > 1 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	date, err := ParseDate(parts[0])
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	return date, parts[1:], nil
}
