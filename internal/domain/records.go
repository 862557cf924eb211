package domain

import "fmt"

// Side identifies which of the two reconciled inputs a record came from.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// SourceKind is the logical shape of a side's export.
type SourceKind string

const (
	SourceActReport SourceKind = "act_report"
	SourceInsurance SourceKind = "insurance"
)

// IDPrefix is the prefix of the synthetic record ids assigned at parse time.
func (k SourceKind) IDPrefix() string {
	switch k {
	case SourceActReport:
		return "act"
	case SourceInsurance:
		return "ins"
	default:
		return "row"
	}
}

// Row maps column names to cell values.
type Row map[string]Value

// Get returns the cell for column, or the empty value when absent.
func (r Row) Get(column string) Value {
	return r[column]
}

// Record is one parsed row plus its synthetic id. Ids are only meaningful
// within a single reconciliation run.
type Record struct {
	ID     string `json:"id"`
	Fields Row    `json:"fields"`
}

// Key returns the normalized join key taken from column.
func (r Record) Key(column string) string {
	return r.Fields.Get(column).Key()
}

// Amount returns the normalized amount taken from column.
func (r Record) Amount(column string) float64 {
	return r.Fields.Get(column).Amount()
}

// Table is an ordered set of records with the header row it was parsed from.
type Table struct {
	Kind    SourceKind `json:"kind"`
	Headers []string   `json:"headers"`
	Records []Record   `json:"records"`
}

// NewTable assigns ids "<prefix>_<rowIndex>" to rows in input order.
func NewTable(kind SourceKind, headers []string, rows []Row) *Table {
	t := &Table{
		Kind:    kind,
		Headers: headers,
		Records: make([]Record, 0, len(rows)),
	}
	for i, row := range rows {
		t.Records = append(t.Records, Record{
			ID:     fmt.Sprintf("%s_%d", kind.IDPrefix(), i),
			Fields: row,
		})
	}
	return t
}

// HasColumn reports whether column belongs to the table's schema. Without
// headers the schema is the union of the record fields; a table with neither
// headers nor records accepts any column.
func (t *Table) HasColumn(column string) bool {
	if t == nil {
		return true
	}
	if len(t.Headers) > 0 {
		for _, h := range t.Headers {
			if h == column {
				return true
			}
		}
		return false
	}
	if len(t.Records) == 0 {
		return true
	}
	for _, rec := range t.Records {
		if _, ok := rec.Fields[column]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of records, treating nil as empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Rows returns the records, treating nil as empty.
func (t *Table) Rows() []Record {
	if t == nil {
		return nil
	}
	return t.Records
}
