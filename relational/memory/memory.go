// Package memory implements the relational module contracts over in-memory
// tables. It is the simplest way to feed rows to the converter and is used
// throughout the engine's own tests.
package memory

import (
	"fmt"

	"github.com/c360/relgraph/resource"
)

// Row is one record of a table, keyed by column name
type Row map[string]any

// RowResource wraps a single row as a conversion resource. Writes are kept
// in an overlay so the underlying table is never mutated.
type RowResource struct {
	resource.Scratchpad

	entityType string
	row        Row
	changed    map[string]any
}

// NewRowResource wraps a row under the given entity type
func NewRowResource(entityType string, row Row) *RowResource {
	return &RowResource{entityType: entityType, row: row}
}

// Type returns the entity type used to dispatch to a compiled plan
func (r *RowResource) Type() string {
	return r.entityType
}

// Get returns the value stored under key. An unknown key is an error.
func (r *RowResource) Get(key string) (any, error) {
	if value, ok := r.changed[key]; ok {
		return value, nil
	}
	value, ok := r.row[key]
	if !ok {
		return nil, fmt.Errorf("resource of type %q has no attribute %q", r.entityType, key)
	}
	return value, nil
}

// Set stores a value in the overlay, leaving the source row untouched
func (r *RowResource) Set(key string, value any) error {
	if r.changed == nil {
		r.changed = make(map[string]any)
	}
	r.changed[key] = value
	return nil
}

// Keys lists the held attribute keys
func (r *RowResource) Keys() []string {
	keys := make([]string, 0, len(r.row)+len(r.changed))
	for key := range r.row {
		keys = append(keys, key)
	}
	for key := range r.changed {
		if _, inRow := r.row[key]; !inRow {
			keys = append(keys, key)
		}
	}
	return keys
}

// Supplies returns the per-resource scratchpad
func (r *RowResource) Supplies() *resource.Scratchpad {
	return &r.Scratchpad
}

// TableIterator iterates the rows of an in-memory table as resources of one
// entity type.
type TableIterator struct {
	entityType string
	rows       []Row
	position   int
}

// NewTableIterator creates an iterator over rows with the given entity type
func NewTableIterator(entityType string, rows []Row) *TableIterator {
	return &TableIterator{entityType: entityType, rows: rows}
}

// Next returns the next row wrapped as a resource
func (t *TableIterator) Next() (resource.Resource, bool, error) {
	if t.position >= len(t.rows) {
		return nil, false, nil
	}
	row := t.rows[t.position]
	t.position++
	return NewRowResource(t.entityType, row), true, nil
}

// Reset rewinds to the first row
func (t *TableIterator) Reset() error {
	t.position = 0
	return nil
}

// Len returns the number of rows
func (t *TableIterator) Len() int {
	return len(t.rows)
}
