package gateway

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"act-reconciliation/internal/domain"
)

// Sheet names of the exported workbook.
const (
	SheetSummary    = "Summary"
	SheetMatched    = "Matched"
	SheetUnmatched  = "Unmatched"
	SheetDuplicates = "Duplicates"
	SheetArithmetic = "Arithmetic"
)

// Labels of the summary sheet.
const (
	LabelTotalMatches     = "Total matches"
	LabelTotalUnmatched   = "Total unmatched"
	LabelMatchPercentage  = "Match percentage"
	LabelDuplicates       = "Duplicates"
	LabelArithmeticIssues = "Arithmetic issues"
	LabelMode             = "Mode"
	LabelExportTimestamp  = "Export timestamp"
)

// ExcelExporter renders a reconciliation report as a multi-sheet workbook.
type ExcelExporter struct {
	now func() time.Time
}

// NewExcelExporter creates an exporter stamping workbooks with the wall clock.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{now: time.Now}
}

// Export writes the workbook to w.
func (e *ExcelExporter) Export(ctx context.Context, w io.Writer, report *domain.ReconciliationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	sw := sheetWriter{f: f, bold: bold}

	leftHeaders := headersOf(report.Left, recordsOfSide(report, domain.SideLeft))
	rightHeaders := headersOf(report.Right, recordsOfSide(report, domain.SideRight))
	allHeaders := union(leftHeaders, rightHeaders)

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	summary := report.Result.Summary
	sw.write(SheetSummary, []string{"Metric", "Value"}, [][]interface{}{
		{LabelTotalMatches, summary.TotalMatched},
		{LabelTotalUnmatched, summary.TotalUnmatched},
		{LabelMatchPercentage, fmt.Sprintf("%d%%", int(math.Round(summary.MatchPercentage)))},
		{LabelDuplicates, len(report.Result.Duplicates)},
		{LabelArithmeticIssues, len(report.ArithmeticIssues)},
		{LabelMode, report.Mode},
		{LabelExportTimestamp, e.now().Format(time.RFC3339)},
	})

	matchedHeaders := append(prefixed("L:", leftHeaders), prefixed("R:", rightHeaders)...)
	matchedHeaders = append(matchedHeaders, "Confidence", "Reason")
	var matched [][]interface{}
	for _, p := range report.Result.Matched {
		line := append(cells(p.Left, leftHeaders), cells(p.Right, rightHeaders)...)
		line = append(line, fmt.Sprintf("%d%%", int(math.Round(p.Confidence*100))), p.Reason)
		matched = append(matched, line)
	}
	sw.write(SheetMatched, matchedHeaders, matched)

	var unmatched [][]interface{}
	for _, rec := range report.Result.Unmatched.Left {
		unmatched = append(unmatched, append([]interface{}{string(domain.SideLeft), rec.ID}, cells(rec, allHeaders)...))
	}
	for _, rec := range report.Result.Unmatched.Right {
		unmatched = append(unmatched, append([]interface{}{string(domain.SideRight), rec.ID}, cells(rec, allHeaders)...))
	}
	sw.write(SheetUnmatched, append([]string{"Side", "ID"}, allHeaders...), unmatched)

	var dups [][]interface{}
	for _, d := range report.Result.Duplicates {
		for _, rec := range d.Rows {
			dups = append(dups, append([]interface{}{string(d.Side), d.Key, rec.ID}, cells(rec, allHeaders)...))
		}
	}
	sw.write(SheetDuplicates, append([]string{"Side", "Key", "ID"}, allHeaders...), dups)

	var arith [][]interface{}
	for _, is := range report.ArithmeticIssues {
		arith = append(arith, append([]interface{}{is.Reason, is.Row.ID}, cells(is.Row, allHeaders)...))
	}
	sw.write(SheetArithmetic, append([]string{"Reason", "ID"}, allHeaders...), arith)

	if sw.err != nil {
		return sw.err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the export reads top to bottom.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (sw *sheetWriter) write(sheet string, headers []string, rows [][]interface{}) {
	if sw.err != nil {
		return
	}
	if sw.err = sw.fill(sheet, headers, rows); sw.err != nil {
		sw.err = fmt.Errorf("failed to write sheet %s: %w", sheet, sw.err)
	}
}

func (sw *sheetWriter) fill(sheet string, headers []string, rows [][]interface{}) error {
	if idx, _ := sw.f.GetSheetIndex(sheet); idx < 0 {
		if _, err := sw.f.NewSheet(sheet); err != nil {
			return err
		}
	}

	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := sw.f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	if err := sw.f.SetRowStyle(sheet, 1, 1, sw.bold); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}
		return sw.f.SetColWidth(sheet, "A", last, 18)
	}
	return nil
}

func cells(rec domain.Record, headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = cellValue(rec.Fields.Get(h))
	}
	return out
}

func cellValue(v domain.Value) interface{} {
	switch v.Kind() {
	case domain.KindNumber:
		return v.Amount()
	case domain.KindString:
		return v.Key()
	default:
		return nil
	}
}

func prefixed(prefix string, headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = prefix + h
	}
	return out
}

// headersOf prefers the parsed header row and falls back to the sorted union
// of field names when the table is unknown.
func headersOf(t *domain.Table, recs []domain.Record) []string {
	if t != nil && len(t.Headers) > 0 {
		return t.Headers
	}
	seen := map[string]bool{}
	var out []string
	for _, rec := range recs {
		for k := range rec.Fields {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, h := range list {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}

func recordsOfSide(report *domain.ReconciliationReport, side domain.Side) []domain.Record {
	var recs []domain.Record
	for _, p := range report.Result.Matched {
		if side == domain.SideLeft {
			recs = append(recs, p.Left)
		} else {
			recs = append(recs, p.Right)
		}
	}
	if side == domain.SideLeft {
		recs = append(recs, report.Result.Unmatched.Left...)
	} else {
		recs = append(recs, report.Result.Unmatched.Right...)
	}
	for _, d := range report.Result.Duplicates {
		if d.Side == side {
			recs = append(recs, d.Rows...)
		}
	}
	return recs
}
