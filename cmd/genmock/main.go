// Command genmock writes a reproducible manual observation file and a master
// data file seeded with its first row, for exercising an import locally
// against stubbed or live remote sources.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -start 2019-05-01 -days 30 \
//	  -input-out data/mock/cool_data.csv \
//	  -output-out data/mock/master_data.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/pw-import/internal/adapter/csvfile"
	"github.com/couchcryptid/pw-import/internal/domain"
)

var inputHeader = []string{
	"Date", "Condition", "RH", "Extra 1", "Extra 2", "Extra 3", "Extra 4",
	"Time", "NWS Time", "NWS Temp",
	"TE Sky", "FLIR Sky", "AMES1 Sky", "AMES2 Sky",
	"TE Ground", "FLIR Ground", "AMES1 Ground", "AMES2 Ground",
	"Comments",
}

var conditions = []string{"clear sky", "haze", "scattered clouds", "overcast", "clear sky/contrails"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.String("start", "2019-05-01", "first observation date (YYYY-MM-DD)")
	days := flag.Int("days", 30, "number of consecutive observation days")
	seed := flag.Uint64("seed", 1, "random seed for synthetic readings")
	inputOut := flag.String("input-out", "", "output path for the manual observation CSV")
	outputOut := flag.String("output-out", "", "output path for the seeded master data CSV")
	flag.Parse()

	if *inputOut == "" || *outputOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -input-out, -output-out")
	}
	if *days < 2 {
		return fmt.Errorf("-days must be at least 2, got %d", *days)
	}
	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	// Fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(first.AddDate(0, 0, *days)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	rows := make([][]string, 0, *days)
	for i := range *days {
		rows = append(rows, mockRow(rng, first.AddDate(0, 0, i)))
	}

	if err := writeInput(*inputOut, rows); err != nil {
		return fmt.Errorf("writing input fixture: %w", err)
	}
	log.Printf("wrote input fixture: %s (%d rows)", *inputOut, len(rows))

	records := make([]domain.InputRecord, 0, 2)
	for i, row := range rows[:2] {
		rec, err := domain.ParseInputRecord(row, i+2)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	if err := writeSeed(*outputOut, rng, records); err != nil {
		return fmt.Errorf("writing output fixture: %w", err)
	}
	log.Printf("wrote output fixture: %s (seeded at %s)", *outputOut, domain.FormatDate(first))
	return nil
}

func mockRow(rng *rand.Rand, date time.Time) []string {
	reading := func(base, spread float64) string {
		return strconv.FormatFloat(domain.RoundTo(base+rng.Float64()*spread, 1), 'f', 1, 64)
	}
	observed := time.Date(0, 1, 1, 10, rng.IntN(60), 0, 0, time.UTC)
	return []string{
		domain.FormatDate(date),
		conditions[rng.IntN(len(conditions))],
		reading(10, 30),
		"", "", "", "",
		observed.Format(domain.SurfaceTimeLayout),
		"10:53",
		reading(15, 15),
		reading(-20, 10), reading(-20, 10), reading(-20, 10), reading(-20, 10),
		reading(20, 20), reading(20, 20), reading(20, 20), reading(20, 20),
		"",
	}
}

func writeInput(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(inputHeader); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// writeSeed writes the row for the first date so an import resumes at the second.
func writeSeed(path string, rng *rand.Rand, records []domain.InputRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	date := records[0].Date
	pw := func() domain.PrecipitableWater {
		return domain.PrecipitableWater{Value: domain.RoundTo(5+rng.Float64()*20, 2)}
	}
	sounding := func(station string) domain.Sounding {
		return domain.Sounding{Station: station, Date: date, Noon: pw(), Midnight: pw()}
	}
	observed, err := records[1].ObservedAt()
	if err != nil {
		return err
	}
	surface := domain.SurfaceObservation{
		Time:             domain.Combine(date, observed).Add(5 * time.Minute),
		RelativeHumidity: domain.RoundTo(10+rng.Float64()*30, 1),
		Temperature:      15 + rng.Float64()*15,
	}

	row := domain.BuildOutputRow(date, records[1], surface, sounding("ABQ"), sounding("EPZ"))
	return csvfile.OutputFile{Path: path}.Append(context.Background(), row)
}
