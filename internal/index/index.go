// Package index groups the records of one side by their join key.
package index

import "act-reconciliation/internal/domain"

// Index maps a normalized key to every record carrying it. Keys iterate in
// order of first appearance and records keep their input order.
type Index struct {
	side   domain.Side
	column string
	keys   []string
	groups map[string][]domain.Record
}

// Build indexes records by column. Missing keys land in the "" bucket.
func Build(side domain.Side, records []domain.Record, column string) *Index {
	ix := &Index{
		side:   side,
		column: column,
		groups: make(map[string][]domain.Record),
	}
	for _, rec := range records {
		key := rec.Key(column)
		if _, ok := ix.groups[key]; !ok {
			ix.keys = append(ix.keys, key)
		}
		ix.groups[key] = append(ix.groups[key], rec)
	}
	return ix
}

// Side returns the side this index was built for.
func (ix *Index) Side() domain.Side { return ix.side }

// Column returns the key column.
func (ix *Index) Column() string { return ix.column }

// Keys returns the distinct keys in first-appearance order.
func (ix *Index) Keys() []string { return ix.keys }

// Rows returns the records sharing key, or nil.
func (ix *Index) Rows(key string) []domain.Record { return ix.groups[key] }

// Has reports whether at least one record carries key.
func (ix *Index) Has(key string) bool { return len(ix.groups[key]) > 0 }

// Duplicates returns one group per key held by two or more records.
func (ix *Index) Duplicates() []domain.DuplicateGroup {
	var dups []domain.DuplicateGroup
	for _, key := range ix.keys {
		rows := ix.groups[key]
		if len(rows) > 1 {
			dups = append(dups, domain.DuplicateGroup{Side: ix.side, Key: key, Rows: rows})
		}
	}
	return dups
}
