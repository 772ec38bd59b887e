package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
)

// Field positions within an output row, after the date column.
const (
	fieldRH          = 1
	fieldFirstPW     = 2
	fieldLastPW      = 5
	fieldSurfaceTime = 7
	fieldTemperature = 8
)

// outputRow is one non-blank line of the master data file.
type outputRow struct {
	line   int
	date   time.Time
	fields []string
	err    error
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func readOutputRows(r io.Reader) ([]outputRow, error) {
	var rows []outputRow
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		date, fields, err := domain.ParseOutputLine(text)
		rows = append(rows, outputRow{line: line, date: date, fields: fields, err: err})
	}
	return rows, sc.Err()
}

func validateRowShape(rows []outputRow) *phase {
	p := &phase{name: "Row shape"}
	if len(rows) == 0 {
		p.errorf("output file has no rows")
	}
	for _, r := range rows {
		if r.err != nil {
			p.errorf("line %d: %v", r.line, r.err)
			continue
		}
		if len(r.fields) != domain.OutputFields {
			p.errorf("line %d: got %d fields, want %d", r.line, len(r.fields), domain.OutputFields)
		}
	}
	return p
}

func validateDateOrder(rows []outputRow) *phase {
	p := &phase{name: "Dates strictly ascending"}
	var prev *outputRow
	for i := range rows {
		r := &rows[i]
		if r.err != nil {
			continue
		}
		if prev != nil && !r.date.After(prev.date) {
			p.errorf("line %d: %s does not follow %s (line %d)",
				r.line, domain.FormatDate(r.date), domain.FormatDate(prev.date), prev.line)
		}
		prev = r
	}
	return p
}

func validateValues(rows []outputRow) *phase {
	p := &phase{name: "Sounding and surface values"}
	for _, r := range rows {
		if r.err != nil || len(r.fields) != domain.OutputFields {
			continue
		}
		for i := fieldFirstPW; i <= fieldLastPW; i++ {
			if v := r.fields[i]; v != domain.MissingSentinel && !isNumber(v) {
				p.errorf("line %d: %s = %q is neither a number nor %s",
					r.line, domain.ColumnNames[i], v, domain.MissingSentinel)
			}
		}
		for _, i := range []int{fieldRH, fieldTemperature} {
			if !isNumber(r.fields[i]) {
				p.errorf("line %d: %s = %q is not a number", r.line, domain.ColumnNames[i], r.fields[i])
			}
		}
		if _, err := time.Parse(domain.SurfaceTimeLayout, r.fields[fieldSurfaceTime]); err != nil {
			p.errorf("line %d: %s = %q is not HH:MM",
				r.line, domain.ColumnNames[fieldSurfaceTime], r.fields[fieldSurfaceTime])
		}
	}
	return p
}

func validateInputCoverage(rows []outputRow, records []domain.InputRecord) *phase {
	p := &phase{name: "Output dates present in input"}
	index := domain.IndexByDate(records)
	for _, r := range rows {
		if r.err != nil {
			continue
		}
		if _, ok := index[domain.DateKey(r.date)]; !ok {
			p.errorf("line %d: %s not found in input", r.line, domain.FormatDate(r.date))
		}
	}
	return p
}

// pendingRows counts input records an import would still write after the
// last valid output date. The final input record never has a pair.
func pendingRows(rows []outputRow, records []domain.InputRecord) int {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].err != nil {
			continue
		}
		k, ok := domain.IndexByDate(records)[domain.DateKey(rows[i].date)]
		if !ok {
			return 0
		}
		return max(len(records)-2-k, 0)
	}
	return 0
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
