package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/logger"
)

// seedRow is one CSV line: title,year,author[,lent_to].
type seedRow struct {
	Title  string
	Year   int
	Author string
	LentTo string
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.Log, "import")
	defer log.Sync() //nolint:errcheck

	seedPath := cfg.SeedFile
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	manager, err := library.OpenLibraryManager(cfg.Export.DBPath, log.Named("manager"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening export database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	f, err := os.Open(seedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening seed file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := readSeed(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Importing %d copies from %s...\n", len(rows), seedPath)
	successCount, errorCount := importRows(manager, rows, log)

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d copies\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount == 0 {
		return
	}

	fmt.Println("\nAvailability:")
	fmt.Printf("%-50s %-6s %-30s %-9s %s\n", "Title", "Year", "Author", "Available", "Lent")
	fmt.Println(strings.Repeat("-", 105))
	for _, r := range manager.AvailabilityReport() {
		fmt.Printf("%-50s %-6d %-30s %-9d %d\n", library.Truncate(r.Title, 50), r.Year, library.Truncate(r.Author, 30), r.Available, r.Lent)
	}

	exportID, err := manager.Export(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting catalog: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nReport written to %s (export ID %s)\n", cfg.Export.DBPath, exportID)
}

// readSeed parses the seed CSV. Blank lines and lines starting with '#' are
// skipped.
func readSeed(r io.Reader) ([]seedRow, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []seedRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse csv")
		}
		if len(rec) < 3 {
			line, _ := cr.FieldPos(0)
			return nil, errors.Errorf("line %d: want title,year,author[,lent_to], got %d fields", line, len(rec))
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			line, _ := cr.FieldPos(1)
			return nil, errors.Errorf("line %d: invalid year %q", line, rec[1])
		}
		row := seedRow{Title: strings.TrimSpace(rec[0]), Year: year, Author: strings.TrimSpace(rec[2])}
		if len(rec) > 3 {
			row.LentTo = strings.TrimSpace(rec[3])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importRows adds every row as a copy, lending it when LentTo is set.
func importRows(mgr *library.LibraryManager, rows []seedRow, log *zap.Logger) (successCount, errorCount int) {
	for _, r := range rows {
		id, err := mgr.AddBook(r.Title, r.Year, r.Author)
		if err != nil {
			fmt.Printf("ERROR - %s: %v\n", r.Title, err)
			errorCount++
			continue
		}
		if r.LentTo != "" {
			if err := mgr.LendBook(id, r.LentTo); err != nil {
				log.Warn("seed lend failed", zap.Int64("id", id), zap.Error(err))
				fmt.Printf("ERROR - lend %s: %v\n", r.Title, err)
				errorCount++
				continue
			}
		}
		successCount++
	}
	return successCount, errorCount
}
