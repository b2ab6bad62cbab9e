// Package sqlite implements the relational module contracts over a SQLite
// database: every row of a table becomes a resource whose entity type is the
// table name.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/c360/relgraph/relational/memory"
	"github.com/c360/relgraph/resource"
)

// Open opens a SQLite database file. Use ":memory:" for an in-memory
// database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database %q: %w", path, err)
	}
	return db, nil
}

// Tables lists the user tables of the database
func Tables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// quoteIdent quotes a SQLite identifier, doubling embedded quotes
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TableIterator iterates the rows of one table as resources. The select is
// issued lazily on the first Next and re-issued after Reset, so chained
// iterators never hold more than one open result set.
type TableIterator struct {
	db    *sql.DB
	table string

	rows    *sql.Rows
	columns []string
	opened  bool
	length  int
}

// NewTableIterator creates an iterator over all rows of a table. The row
// count is taken up front for progress reporting.
func NewTableIterator(db *sql.DB, table string) (*TableIterator, error) {
	var length int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := db.QueryRow(countQuery).Scan(&length); err != nil {
		return nil, fmt.Errorf("count rows of table %q: %w", table, err)
	}
	return &TableIterator{db: db, table: table, length: length}, nil
}

// open issues the select
func (t *TableIterator) open() error {
	rows, err := t.db.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdent(t.table)))
	if err != nil {
		return fmt.Errorf("select from table %q: %w", t.table, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return err
	}
	t.rows = rows
	t.columns = columns
	t.opened = true
	return nil
}

// Next returns the next row wrapped as a resource
func (t *TableIterator) Next() (resource.Resource, bool, error) {
	if !t.opened {
		if err := t.open(); err != nil {
			return nil, false, err
		}
	}
	if t.rows == nil {
		return nil, false, nil
	}
	if !t.rows.Next() {
		err := t.rows.Err()
		t.rows = nil
		return nil, false, err
	}

	values := make([]any, len(t.columns))
	pointers := make([]any, len(t.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := t.rows.Scan(pointers...); err != nil {
		return nil, false, fmt.Errorf("scan row of table %q: %w", t.table, err)
	}

	row := make(memory.Row, len(t.columns))
	for i, column := range t.columns {
		row[column] = values[i]
	}
	return memory.NewRowResource(t.table, row), true, nil
}

// Reset rewinds iteration to the first row; the next Next re-issues the
// select
func (t *TableIterator) Reset() error {
	err := t.Close()
	t.opened = false
	return err
}

// Len returns the row count taken when the iterator was created
func (t *TableIterator) Len() int {
	return t.length
}

// Close releases the underlying result set
func (t *TableIterator) Close() error {
	if t.rows == nil {
		return nil
	}
	err := t.rows.Close()
	t.rows = nil
	return err
}

// DatabaseIterator iterates all rows of several tables in order. With no
// tables given, all user tables are converted.
func DatabaseIterator(db *sql.DB, tables ...string) (resource.Iterator, error) {
	if len(tables) == 0 {
		var err error
		tables, err = Tables(db)
		if err != nil {
			return nil, err
		}
	}

	iterators := make([]resource.Iterator, 0, len(tables))
	for _, table := range tables {
		it, err := NewTableIterator(db, table)
		if err != nil {
			return nil, err
		}
		iterators = append(iterators, it)
	}
	return resource.NewCompositeIterator(iterators...), nil
}
