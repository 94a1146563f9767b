package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

var (
	ErrConnection    = errors.New("snapshot: connection failure")
	ErrTableNotFound = errors.New("snapshot: table not found")
)

// TableNotFoundError reports a table that could not be resolved in any case,
// together with every table the schema does expose.
type TableNotFoundError struct {
	Table     string
	Available []string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' not found, available: [%s]", e.Table, strings.Join(e.Available, ", "))
}

func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}

const openTimeout = 5 * time.Second

// Open opens an existing SQLite database file read-only. It never creates a
// new file.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrConnection, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	// one statement, one cursor
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if err := probe(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, path, err)
	}

	log.Infof("connected to sqlite database %s", path)
	return db, nil
}

func probe(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return err
	}
	// sqlite accepts any file on open, reading the catalog is what fails
	var n int
	return db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n)
}

const (
	lookupTableQuery = `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ?
	`
	lookupTableNoCaseQuery = `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE
		ORDER BY name
		LIMIT 1
	`
	listTablesQuery = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
)

// ResolveTable finds name in the schema catalog, trying the upper-cased name
// first and the lower-cased name second. A stored name in any other case is
// matched last, ignoring case.
func ResolveTable(ctx context.Context, db *sql.DB, name string) (string, error) {
	lookups := []struct {
		query string
		arg   string
	}{
		{lookupTableQuery, strings.ToUpper(name)},
		{lookupTableQuery, strings.ToLower(name)},
		{lookupTableNoCaseQuery, name},
	}
	for _, l := range lookups {
		var found string
		err := db.QueryRowContext(ctx, l.query, l.arg).Scan(&found)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to look up table %s: %w", l.arg, err)
		}
	}

	available, err := ListTables(ctx, db)
	if err != nil {
		return "", err
	}
	return "", &TableNotFoundError{Table: name, Available: available}
}

// ListTables returns every user table name in the schema.
func ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Scanner is a forward-only, single-pass cursor over one table. It cannot be
// rewound; scan again to re-read.
type Scanner struct {
	table string
	rows  *sql.Rows
	cols  []Column
	dec   *RowDecoder
	raw   []any
	dest  []any
	rec   Record
	err   error
}

// ScanTable resolves name and starts a full-table scan.
func ScanTable(ctx context.Context, db *sql.DB, name string) (*Scanner, error) {
	table, err := ResolveTable(ctx, db, name)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to scan table %s: %w", table, err)
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	s := &Scanner{
		table: table,
		rows:  rows,
		cols:  make([]Column, len(types)),
		dec:   NewRowDecoder(),
		raw:   make([]any, len(types)),
		dest:  make([]any, len(types)),
	}
	for i, ct := range types {
		s.cols[i] = NewColumn(ct.Name(), ct.DatabaseTypeName())
		s.dest[i] = &s.raw[i]
	}
	return s, nil
}

// Table is the resolved table name.
func (s *Scanner) Table() string { return s.table }

// Columns is the column metadata captured when the scan started.
func (s *Scanner) Columns() []Column { return s.cols }

// Next advances to the next row. It returns false at the end of the table or
// on error; check Err afterwards.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.rows.Next() {
		s.err = s.rows.Err()
		return false
	}
	if err := s.rows.Scan(s.dest...); err != nil {
		s.err = fmt.Errorf("failed to read row of %s: %w", s.table, err)
		return false
	}
	s.rec = s.dec.DecodeRow(s.cols, s.raw)
	return true
}

func (s *Scanner) Record() Record { return s.rec }

func (s *Scanner) Err() error { return s.err }

// Degraded is the number of cells decoded to null so far because of a read
// or cast failure.
func (s *Scanner) Degraded() int { return s.dec.Degraded() }

// Close releases the cursor. It is safe to call mid-scan.
func (s *Scanner) Close() error {
	return s.rows.Close()
}

// Drain reads every remaining row and closes the cursor. On error the
// partial result is discarded.
func (s *Scanner) Drain() ([]Record, error) {
	defer s.Close()

	records := []Record{}
	for s.Next() {
		records = append(records, s.Record())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadAll drains the table into memory.
func ReadAll(ctx context.Context, db *sql.DB, name string) ([]Record, error) {
	s, err := ScanTable(ctx, db, name)
	if err != nil {
		return nil, err
	}
	return s.Drain()
}
