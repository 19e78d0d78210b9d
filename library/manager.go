package library

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_exporter.go -package=mocks library-catalog/library Exporter,Lister

// Exporter writes a catalog snapshot somewhere outside the process and
// returns an id for the written export.
type Exporter interface {
	Export(ctx context.Context, snap Snapshot) (string, error)
}

// Lister is implemented by exporters that can list what they have written.
type Lister interface {
	Exports(ctx context.Context) ([]ExportRecord, error)
}

// LibraryManager is a thin façade over a Library that makes it safe for
// concurrent callers and keeps CLI code simple.
type LibraryManager struct {
	mu  sync.Mutex
	lib *Library

	exporter Exporter
	closer   func() error
	log      *zap.Logger
	now      func() time.Time
}

// NewLibraryManager wraps an empty Library. exporter may be nil, in which case
// Export returns ErrExportDisabled.
func NewLibraryManager(exporter Exporter, log *zap.Logger) *LibraryManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &LibraryManager{
		lib:      NewLibrary(),
		exporter: exporter,
		log:      log,
		now:      time.Now,
	}
}

// OpenLibraryManager opens (or creates) the SQLite export database at dbPath
// and uses it as the manager's exporter.
func OpenLibraryManager(dbPath string, log *zap.Logger) (*LibraryManager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := NewDatabase(dbPath, log.Named("database"))
	if err != nil {
		return nil, err
	}
	lm := NewLibraryManager(db, log)
	lm.closer = db.Close
	return lm, nil
}

// Close closes the underlying export database, if any.
func (lm *LibraryManager) Close() error {
	if lm.closer == nil {
		return nil
	}
	return lm.closer()
}

// Exports lists the exports written so far. It returns ErrExportDisabled
// when the exporter does not implement Lister.
func (lm *LibraryManager) Exports(ctx context.Context) ([]ExportRecord, error) {
	l, ok := lm.exporter.(Lister)
	if !ok {
		return nil, ErrExportDisabled
	}
	return l.Exports(ctx)
}

// ------------------ Copies ------------------

func (lm *LibraryManager) AddBook(title string, year int, author string) (int64, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	id, err := lm.lib.AddBook(title, year, author)
	if err != nil {
		lm.log.Debug("add book rejected", zap.String("title", title), zap.String("author", author), zap.Error(err))
		return 0, err
	}
	lm.log.Info("book copy added",
		zap.Int64("id", id),
		zap.String("title", title),
		zap.Int("year", year),
		zap.String("author", author),
		zap.Int("copies", lm.lib.Len()))
	return id, nil
}

func (lm *LibraryManager) RemoveBook(id int64) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if err := lm.lib.RemoveBookByID(id); err != nil {
		lm.log.Debug("remove book rejected", zap.Int64("id", id), zap.Error(err))
		return err
	}
	lm.log.Info("book copy removed", zap.Int64("id", id), zap.Int("copies", lm.lib.Len()))
	return nil
}

func (lm *LibraryManager) LendBook(id int64, userName string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if err := lm.lib.LendForUser(id, userName); err != nil {
		lm.log.Debug("lend rejected", zap.Int64("id", id), zap.String("user", userName), zap.Error(err))
		return err
	}
	lm.log.Info("book copy lent", zap.Int64("id", id), zap.String("user", userName))
	return nil
}

func (lm *LibraryManager) GetBookCopy(id int64) (BookCopy, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lib.GetBookCopyInfo(id)
}

func (lm *LibraryManager) GetAllCopies() []BookCopy {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lib.Copies()
}

func (lm *LibraryManager) Search(pred Predicate) ([]BookCopy, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lib.Search(pred)
}

// ------------------ Availability ------------------

func (lm *LibraryManager) Availability() map[Book]BookAvailability {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lib.ListBookAvailability()
}

// AvailabilityReport returns availability rows sorted by title, author and year.
func (lm *LibraryManager) AvailabilityReport() []TitleAvailability {
	return SortedAvailability(lm.Availability())
}

func SortedAvailability(m map[Book]BookAvailability) []TitleAvailability {
	rows := make([]TitleAvailability, 0, len(m))
	for b, a := range m {
		rows = append(rows, TitleAvailability{Book: b, Available: a.NumAvailable(), Lent: a.NumLent()})
	}
	slices.SortFunc(rows, func(x, y TitleAvailability) int {
		return cmp.Or(
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.Author, y.Author),
			cmp.Compare(x.Year, y.Year),
		)
	})
	return rows
}

// ------------------ Export ------------------

// Snapshot captures copies and availability under a single lock.
func (lm *LibraryManager) Snapshot() Snapshot {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return Snapshot{
		TakenAt:      lm.now().UTC(),
		Copies:       lm.lib.Copies(),
		Availability: SortedAvailability(lm.lib.ListBookAvailability()),
	}
}

// Export writes a snapshot through the exporter. The catalog stays usable
// while the export runs.
func (lm *LibraryManager) Export(ctx context.Context) (string, error) {
	if lm.exporter == nil {
		return "", ErrExportDisabled
	}
	snap := lm.Snapshot()
	id, err := lm.exporter.Export(ctx, snap)
	if err != nil {
		lm.log.Error("export failed", zap.Error(err))
		return "", errors.Wrap(err, "export catalog")
	}
	lm.log.Info("catalog exported", zap.String("export_id", id), zap.Int("copies", len(snap.Copies)))
	return id, nil
}

// ------------------ Utilities ------------------

// PrettyCopy formats a copy for lists.
func PrettyCopy(c BookCopy) string {
	holder, _ := c.LendingUser()
	return fmt.Sprintf("%-5d %-30s %-6d %-25s %-10t %-20s",
		c.ID(), Truncate(c.Book().Title, 30), c.Book().Year, Truncate(c.Book().Author, 25), !c.IsLent(), holder)
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
