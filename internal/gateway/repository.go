package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"act-reconciliation/internal/domain"
)

// TableRepository loads spreadsheet exports from disk. It implements the
// usecase.TableRepository interface.
type TableRepository struct{}

// NewTableRepository creates a new repository instance.
func NewTableRepository() *TableRepository {
	return &TableRepository{}
}

// GetTable reads the file at path, picking the parser from its extension.
func (r *TableRepository) GetTable(ctx context.Context, path string, kind domain.SourceKind) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return ReadTable(file, filepath.Base(path), kind)
}

// ReadTable parses an export from r. name is used for format detection and
// error messages.
func ReadTable(r io.Reader, name string, kind domain.SourceKind) (*domain.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		return readCSV(r, name, kind)
	case ".xlsx", ".xlsm":
		return readXLSX(r, name, kind)
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s", ext, name)
	}
}
