package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InputColumns is the minimum number of columns an input row must carry.
const InputColumns = 19

const subReadingSep = "/"

// Accepted date layouts for the input and output files. Go's non-padded
// layout also accepts zero-padded values, so one layout covers both files.
const (
	InputDateLayout  = "1/2/2006"
	OutputDateLayout = "1/2/2006"
)

// clockLayouts are the time-of-day forms seen in the observer time column.
var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// ErrMalformedRow is returned when an input row cannot be parsed.
var ErrMalformedRow = errors.New("malformed input row")

// Readings holds the sub-readings of one input column.
type Readings []string

// First returns the first sub-reading, or "" when the column was empty.
func (r Readings) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// InputRecord is one parsed row of the user-maintained input file.
type InputRecord struct {
	Line int
	Date time.Time

	Condition        Readings
	RelativeHumidity Readings
	Extra            [4]Readings // columns 3-6, carried but not written out
	ObserverTime     Readings
	NWSTime          Readings
	NWSTemp          Readings

	TESky    Readings
	FLIRSky  Readings
	AMES1Sky Readings
	AMES2Sky Readings

	TEGround    Readings
	FLIRGround  Readings
	AMES1Ground Readings
	AMES2Ground Readings

	Comments Readings
}

// ParseInputRecord converts one CSV row into an InputRecord. line is the
// 1-based line number in the source file and is only used in errors.
func ParseInputRecord(row []string, line int) (InputRecord, error) {
	if len(row) < InputColumns {
		return InputRecord{}, fmt.Errorf("%w: line %d: got %d columns, want at least %d",
			ErrMalformedRow, line, len(row), InputColumns)
	}

	date, err := ParseDate(row[0])
	if err != nil {
		return InputRecord{}, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
	}

	split := func(i int) Readings {
		return splitReadings(row[i])
	}

	return InputRecord{
		Line:             line,
		Date:             date,
		Condition:        split(1),
		RelativeHumidity: split(2),
		Extra:            [4]Readings{split(3), split(4), split(5), split(6)},
		ObserverTime:     split(7),
		NWSTime:          split(8),
		NWSTemp:          split(9),
		TESky:            split(10),
		FLIRSky:          split(11),
		AMES1Sky:         split(12),
		AMES2Sky:         split(13),
		TEGround:         split(14),
		FLIRGround:       split(15),
		AMES1Ground:      split(16),
		AMES2Ground:      split(17),
		Comments:         split(18),
	}, nil
}

// ObservedAt parses the first observer time sub-reading as a time of day.
func (r InputRecord) ObservedAt() (time.Time, error) {
	t, err := ParseClock(r.ObserverTime.First())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, r.Line, err)
	}
	return t, nil
}

// ParseDate parses a month/day/year date, with or without zero padding.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(InputDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date the way the output file stores it: 5/3/2019.
func FormatDate(t time.Time) string {
	return t.Format(OutputDateLayout)
}

// DateKey is the map key used to index records by calendar date.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseClock parses a time of day such as "10:32" or "10:32:15".
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time of day %q", s)
}

// IndexByDate maps each record's date to its position. When a date appears
// more than once the first occurrence wins.
func IndexByDate(records []InputRecord) map[string]int {
	idx := make(map[string]int, len(records))
	for i, r := range records {
		key := DateKey(r.Date)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func splitReadings(s string) Readings {
	parts := strings.Split(s, subReadingSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
