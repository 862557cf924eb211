package gateway

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"act-reconciliation/internal/domain"
)

// readXLSX parses the first worksheet of a workbook. Raw cell values are
// used so that number formats (thousand separators, currency symbols) do not
// leak into amounts.
func readXLSX(r io.Reader, name string, kind domain.SourceKind) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.NewTable(kind, nil, nil), nil
	}

	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q from %s: %w", sheets[0], name, err)
	}
	if len(cells) == 0 {
		return domain.NewTable(kind, nil, nil), nil
	}

	headers := normalizeHeaders(cells[0])
	var rows []domain.Row
	for _, line := range cells[1:] {
		if row, ok := toRow(headers, line); ok {
			rows = append(rows, row)
		}
	}
	return domain.NewTable(kind, headers, rows), nil
}
