package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var exportDB, logLevel string

	cmd := &cobra.Command{
		Use:           "library",
		Short:         "Interactive in-memory catalog of lendable book copies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine; the environment and defaults still apply.
			_ = godotenv.Load()

			var opts []config.Option
			if cmd.Flags().Changed("export-db") {
				opts = append(opts, config.WithExportDB(exportDB))
			}
			if cmd.Flags().Changed("log-level") {
				level, err := zapcore.ParseLevel(logLevel)
				if err != nil {
					return errors.Wrap(err, "parse --log-level")
				}
				opts = append(opts, config.WithLogLevel(level))
			}
			cfg, err := config.NewConfig(opts...)
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.Log, "library")
			defer log.Sync() //nolint:errcheck

			manager, err := library.OpenLibraryManager(cfg.Export.DBPath, log.Named("manager"))
			if err != nil {
				return errors.Wrap(err, "open export database")
			}
			defer manager.Close()

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			runREPL(cmd.Context(), os.Stdin, interactive, manager, log)
			return nil
		},
	}
	cmd.Flags().StringVar(&exportDB, "export-db", "", "path of the SQLite report file written by 'export'")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LIBRARY_LOG_LEVEL")
	return cmd
}

// session carries the REPL input and whether prompts should be shown.
type session struct {
	sc          *bufio.Scanner
	interactive bool
}

// ask prints label (interactive sessions only) and reads one trimmed line.
func (s *session) ask(label string) (string, bool) {
	if s.interactive {
		fmt.Print(label)
	}
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *session) askID(label string) (int64, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Printf("Invalid book ID: %s\n", raw)
		return 0, false
	}
	return id, true
}

func runREPL(ctx context.Context, in io.Reader, interactive bool, mgr *library.LibraryManager, log *zap.Logger) {
	s := &session{sc: bufio.NewScanner(in), interactive: interactive}

	if interactive {
		fmt.Println("Welcome to the Library Catalog!")
		fmt.Println("Available commands:")
		fmt.Println("  Copies: add book, remove book, info, list books, search")
		fmt.Println("  Circulation: lend")
		fmt.Println("  Reports: availability, availability json, export, list exports")
		fmt.Println("  System: exit")
	}

	for {
		cmd, ok := s.ask("\n> ")
		if !ok {
			break
		}

		switch cmd {
		case "add book":
			handleAddBook(s, mgr)
		case "remove book":
			handleRemoveBook(s, mgr)
		case "lend":
			handleLend(s, mgr)
		case "info":
			handleInfo(s, mgr)
		case "list books":
			handleListBooks(mgr)
		case "search":
			handleSearch(s, mgr)
		case "availability":
			handleAvailability(mgr)
		case "availability json":
			handleAvailabilityJSON(mgr)
		case "export":
			handleExport(ctx, mgr)
		case "list exports":
			handleListExports(ctx, mgr)
		case "exit":
			fmt.Println("Goodbye!")
			return
		case "":
		default:
			log.Debug("unknown command", zap.String("command", cmd))
			fmt.Println("Unknown command. Type one of the available commands listed above.")
		}
	}
}

func handleAddBook(s *session, mgr *library.LibraryManager) {
	title, ok := s.ask("Title: ")
	if !ok {
		return
	}
	yearStr, ok := s.ask("Year: ")
	if !ok {
		return
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		fmt.Printf("Invalid year: %s\n", yearStr)
		return
	}
	author, ok := s.ask("Author: ")
	if !ok {
		return
	}

	id, err := mgr.AddBook(title, year, author)
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Added book copy ID %d\n", id)
}

func handleRemoveBook(s *session, mgr *library.LibraryManager) {
	id, ok := s.askID("Book ID: ")
	if !ok {
		return
	}
	if err := mgr.RemoveBook(id); err != nil {
		fmt.Printf("Error removing book: %v\n", err)
		return
	}
	fmt.Printf("Removed book copy ID %d\n", id)
}

func handleLend(s *session, mgr *library.LibraryManager) {
	id, ok := s.askID("Book ID: ")
	if !ok {
		return
	}
	user, ok := s.ask("User name: ")
	if !ok {
		return
	}
	if err := mgr.LendBook(id, user); err != nil {
		fmt.Printf("Error lending book: %v\n", err)
		return
	}
	c, _ := mgr.GetBookCopy(id)
	fmt.Printf("Book '%s' lent to %s\n", c.Book().Title, user)
}

func handleInfo(s *session, mgr *library.LibraryManager) {
	id, ok := s.askID("Book ID: ")
	if !ok {
		return
	}
	c, err := mgr.GetBookCopy(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("ID:     %d\n", c.ID())
	fmt.Printf("Title:  %s\n", c.Book().Title)
	fmt.Printf("Year:   %d\n", c.Book().Year)
	fmt.Printf("Author: %s\n", c.Book().Author)
	if user, lent := c.LendingUser(); lent {
		fmt.Printf("Status: lent to %s\n", user)
	} else {
		fmt.Println("Status: available")
	}
}

func printCopyHeader() {
	fmt.Printf("%-5s %-30s %-6s %-25s %-10s %-20s\n", "ID", "Title", "Year", "Author", "Available", "Lent to")
	fmt.Println(strings.Repeat("-", 100))
}

func handleListBooks(mgr *library.LibraryManager) {
	copies := mgr.GetAllCopies()
	if len(copies) == 0 {
		fmt.Println("No books in library.")
		return
	}
	printCopyHeader()
	for _, c := range copies {
		fmt.Println(library.PrettyCopy(c))
	}
}

func handleSearch(s *session, mgr *library.LibraryManager) {
	title, ok := s.ask("Title contains (optional): ")
	if !ok {
		return
	}
	author, ok := s.ask("Author contains (optional): ")
	if !ok {
		return
	}
	from, ok := s.ask("Published from year (optional): ")
	if !ok {
		return
	}
	before, ok := s.ask("Published before year (optional): ")
	if !ok {
		return
	}

	pred, err := buildSearchPredicate(title, author, from, before)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	copies, err := mgr.Search(pred)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(copies) == 0 {
		fmt.Println("No matching books found.")
		return
	}

	fmt.Printf("Found %d copy(ies):\n", len(copies))
	printCopyHeader()
	for _, c := range copies {
		fmt.Println(library.PrettyCopy(c))
	}
}

// buildSearchPredicate combines the non-empty search fields into one predicate.
func buildSearchPredicate(title, author, from, before string) (library.Predicate, error) {
	var preds []library.Predicate
	if title != "" {
		preds = append(preds, library.TitleContains(title))
	}
	if author != "" {
		preds = append(preds, library.AuthorContains(author))
	}
	if from != "" {
		year, err := strconv.Atoi(from)
		if err != nil {
			return nil, errors.Errorf("invalid year: %s", from)
		}
		preds = append(preds, library.PublishedFrom(year))
	}
	if before != "" {
		year, err := strconv.Atoi(before)
		if err != nil {
			return nil, errors.Errorf("invalid year: %s", before)
		}
		preds = append(preds, library.PublishedBefore(year))
	}
	return library.MatchAll(preds...), nil
}

func handleAvailability(mgr *library.LibraryManager) {
	rows := mgr.AvailabilityReport()
	if len(rows) == 0 {
		fmt.Println("No books in library.")
		return
	}
	fmt.Printf("%-30s %-6s %-25s %-10s %-5s\n", "Title", "Year", "Author", "Available", "Lent")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range rows {
		fmt.Printf("%-30s %-6d %-25s %-10d %-5d\n", library.Truncate(r.Title, 30), r.Year, library.Truncate(r.Author, 25), r.Available, r.Lent)
	}
}

func handleAvailabilityJSON(mgr *library.LibraryManager) {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(mgr.AvailabilityReport(), "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func handleExport(ctx context.Context, mgr *library.LibraryManager) {
	id, err := mgr.Export(ctx)
	if err != nil {
		fmt.Printf("Error exporting catalog: %v\n", err)
		return
	}
	fmt.Printf("Catalog exported (export ID %s)\n", id)
}

func handleListExports(ctx context.Context, mgr *library.LibraryManager) {
	records, err := mgr.Exports(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("No exports written yet.")
		return
	}
	fmt.Printf("%-36s %-25s %s\n", "Export ID", "Exported at", "Copies")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range records {
		fmt.Printf("%-36s %-25s %d\n", r.ID, r.ExportedAt.Format("2006-01-02 15:04:05"), r.CopyCount)
	}
}
