package domain

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is wrapped by every ColumnError.
var ErrMissingColumn = errors.New("column not found")

// ColumnError reports a configured column that is absent from a side's
// schema. It signals misconfiguration, never dirty data.
type ColumnError struct {
	Side   Side
	Role   string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s column %q not found in %s input", e.Role, e.Column, e.Side)
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }

// RequireColumn returns a *ColumnError when table lacks column.
func RequireColumn(t *Table, side Side, role, column string) error {
	if !t.HasColumn(column) {
		return &ColumnError{Side: side, Role: role, Column: column}
	}
	return nil
}
