// Command validate checks the integrity of a master data file: every row has
// the full set of fields, dates strictly ascend, sounding and surface values
// are numeric or the missing sentinel, and, when the input file is given,
// every output date exists in the input.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -output ../data/master_data.csv \
//	  -input ../data/cool_data.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/pw-import/internal/adapter/csvfile"
	"github.com/couchcryptid/pw-import/internal/domain"
)

func main() {
	outputPath := flag.String("output", "", "path to the master data CSV to validate")
	inputPath := flag.String("input", "", "optional path to the manual observation CSV for coverage checks")
	flag.Parse()

	if *outputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*outputPath, *inputPath); code != 0 {
		os.Exit(code)
	}
}

func run(outputPath, inputPath string) int {
	fmt.Println("=== Master Data Integrity Validation ===")
	fmt.Println()

	f, err := os.Open(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open output: %v\n", err)
		return 1
	}
	defer f.Close()

	rows, err := readOutputRows(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read output: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRowShape(rows),
		validateDateOrder(rows),
		validateValues(rows),
	}

	var records []domain.InputRecord
	if inputPath != "" {
		records, err = csvfile.InputFile{Path: inputPath}.Load(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load input: %v\n", err)
			return 1
		}
		phases = append(phases, validateInputCoverage(rows, records))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d output", len(rows))
	if inputPath != "" {
		fmt.Printf(", %d input, %d pending", len(records), pendingRows(rows, records))
	}
	fmt.Println()

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
