package gateway

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"act-reconciliation/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// headerBufferSize bounds how much of the header line is inspected when
// picking the separator.
const headerBufferSize = 64 << 10

// readCSV parses a CSV export whose first line is the header row. Comma and
// semicolon separators are both accepted; the one used by the header wins.
func readCSV(r io.Reader, name string, kind domain.SourceKind) (*domain.Table, error) {
	br := bufio.NewReaderSize(r, headerBufferSize)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = detectSeparator(peekLine(br))

	header, err := reader.Read()
	if err == io.EOF {
		return domain.NewTable(kind, nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", name, err)
	}
	headers := normalizeHeaders(header)

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", name, err)
		}
		if row, ok := toRow(headers, record); ok {
			rows = append(rows, row)
		}
	}
	return domain.NewTable(kind, headers, rows), nil
}

// peekLine returns a buffered prefix of the input that holds the whole first
// line, without consuming it. Short reads are retried until a newline, EOF or
// a full buffer.
func peekLine(br *bufio.Reader) []byte {
	for size := 512; ; size *= 2 {
		head, err := br.Peek(size)
		if bytes.IndexByte(head, '\n') >= 0 || err != nil {
			return head
		}
	}
}

func detectSeparator(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

// toRow maps cells onto headers. Blank lines are skipped and cells beyond the
// header are ignored.
func toRow(headers, cells []string) (domain.Row, bool) {
	row := make(domain.Row, len(headers))
	blank := true
	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		v := strings.TrimSpace(cells[i])
		if v == "" {
			row[h] = domain.Empty()
			continue
		}
		blank = false
		row[h] = domain.String(v)
	}
	return row, !blank
}
