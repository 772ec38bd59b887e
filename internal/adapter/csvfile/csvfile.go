// Package csvfile reads the user-maintained input file and appends to the
// master data file.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/pw-import/internal/domain"
)

// ErrEmptyOutput is returned when the output file holds no dated row to resume from.
var ErrEmptyOutput = errors.New("output file has no dated rows")

// InputFile loads the user input CSV. It is re-read on every call.
type InputFile struct {
	Path string
}

// Load parses every data row of the input file. The first row is a header.
func (f InputFile) Load(_ context.Context) ([]domain.InputRecord, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return ReadInputRecords(file)
}

// ReadInputRecords parses input rows from r, skipping the header row.
func ReadInputRecords(r io.Reader) ([]domain.InputRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	// Free-text comments carry bare inch marks such as 6" of snow.
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read input header: %w", err)
	}

	var records []domain.InputRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		rec, err := domain.ParseInputRecord(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// OutputFile is the append-only master data file.
type OutputFile struct {
	Path string
}

// Append writes one row. The file is opened and closed on every call.
func (f OutputFile) Append(_ context.Context, row domain.OutputRow) error {
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if _, err := file.WriteString(row.Line()); err != nil {
		_ = file.Close()
		return fmt.Errorf("append output row: %w", err)
	}
	return file.Close()
}

// LastDate returns the date of the last dated row in the output file.
// Header or blank lines are skipped.
func (f OutputFile) LastDate(_ context.Context) (time.Time, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return time.Time{}, fmt.Errorf("open output: %w", err)
	}
	defer file.Close()

	var last time.Time
	found := false
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		date, _, err := domain.ParseOutputLine(line)
		if err != nil {
			continue
		}
		last, found = date, true
	}
	if err := sc.Err(); err != nil {
		return time.Time{}, fmt.Errorf("scan output: %w", err)
	}
	if !found {
		return time.Time{}, ErrEmptyOutput
	}
	return last, nil
}

// Advance is a no-op: the appended row itself records progress.
func (f OutputFile) Advance(_ context.Context, _ time.Time) error {
	return nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
