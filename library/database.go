package library

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its dialect, filesystem and logger in package state.
var migrateMu sync.Mutex

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// exportBatchSize rows per INSERT keeps every statement well under SQLite's
// limit of 32766 bound variables.
const exportBatchSize = 1000

// Database writes catalog snapshots to a SQLite file as read-only reports.
// Nothing is ever loaded back into a Library from it.
type Database struct {
	db  *sql.DB
	log *zap.Logger
}

var (
	_ Exporter = (*Database)(nil)
	_ Lister   = (*Database)(nil)
)

// ExportRecord describes one written export.
type ExportRecord struct {
	ID         string    `json:"id"`
	ExportedAt time.Time `json:"exported_at"`
	CopyCount  int       `json:"copy_count"`
}

// ExportedCopy is a copy row as stored in an export.
type ExportedCopy struct {
	CopyID      int64  `json:"copy_id"`
	Book        Book   `json:"book"`
	LendingUser string `json:"lending_user,omitempty"`
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db, log: log}, nil
}

func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

func applyMigrations(db *sql.DB, log *zap.Logger) error {
	// WAL lets readers inspect a report while another export is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errors.Wrap(err, "enable WAL")
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{log.Sugar()})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Wrap(err, "apply migration")
	}
	return nil
}

// gooseLogger routes migration output into zap at debug level.
type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Print(v ...interface{})                 { l.Debug(v...) }
func (l gooseLogger) Println(v ...interface{})               { l.Debug(v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.Debugf(format, v...) }

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Export stores snap in one transaction and returns the generated export id.
func (d *Database) Export(ctx context.Context, snap Snapshot) (string, error) {
	exportID := uuid.NewString()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin export")
	}
	defer tx.Rollback()

	header := psql.Insert("exports").
		Columns("id", "exported_at", "copy_count").
		Values(exportID, snap.TakenAt, len(snap.Copies))
	if err := execBuilder(ctx, tx, header); err != nil {
		return "", errors.Wrap(err, "insert export")
	}

	for batch := range slices.Chunk(snap.Copies, exportBatchSize) {
		ins := psql.Insert("export_copies").
			Columns("export_id", "copy_id", "title", "year", "author", "lending_user")
		for _, c := range batch {
			var holder any
			if user, ok := c.LendingUser(); ok {
				holder = user
			}
			b := c.Book()
			ins = ins.Values(exportID, c.ID(), b.Title, b.Year, b.Author, holder)
		}
		if err := execBuilder(ctx, tx, ins); err != nil {
			return "", errors.Wrap(err, "insert export copies")
		}
	}

	for batch := range slices.Chunk(snap.Availability, exportBatchSize) {
		ins := psql.Insert("export_availability").
			Columns("export_id", "title", "year", "author", "num_available", "num_lent")
		for _, a := range batch {
			ins = ins.Values(exportID, a.Title, a.Year, a.Author, a.Available, a.Lent)
		}
		if err := execBuilder(ctx, tx, ins); err != nil {
			return "", errors.Wrap(err, "insert export availability")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit export")
	}
	d.log.Debug("export written", zap.String("export_id", exportID), zap.Int("copies", len(snap.Copies)))
	return exportID, nil
}

func execBuilder(ctx context.Context, tx *sql.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// Exports returns export headers, newest first.
func (d *Database) Exports(ctx context.Context) ([]ExportRecord, error) {
	query, args, err := psql.Select("id", "exported_at", "copy_count").
		From("exports").
		OrderBy("exported_at DESC", "rowid DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query exports")
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ID, &r.ExportedAt, &r.CopyCount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ExportedCopies returns the copies stored in one export, ordered by copy id.
func (d *Database) ExportedCopies(ctx context.Context, exportID string) ([]ExportedCopy, error) {
	query, args, err := psql.Select("copy_id", "title", "year", "author", "COALESCE(lending_user,'')").
		From("export_copies").
		Where(sq.Eq{"export_id": exportID}).
		OrderBy("copy_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query export copies")
	}
	defer rows.Close()

	var copies []ExportedCopy
	for rows.Next() {
		var c ExportedCopy
		if err := rows.Scan(&c.CopyID, &c.Book.Title, &c.Book.Year, &c.Book.Author, &c.LendingUser); err != nil {
			return nil, err
		}
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// ExportedAvailability returns the availability rows of one export.
func (d *Database) ExportedAvailability(ctx context.Context, exportID string) ([]TitleAvailability, error) {
	query, args, err := psql.Select("title", "year", "author", "num_available", "num_lent").
		From("export_availability").
		Where(sq.Eq{"export_id": exportID}).
		OrderBy("title", "author", "year").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query export availability")
	}
	defer rows.Close()

	var result []TitleAvailability
	for rows.Next() {
		var a TitleAvailability
		if err := rows.Scan(&a.Title, &a.Year, &a.Author, &a.Available, &a.Lent); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
