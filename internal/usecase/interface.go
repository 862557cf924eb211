package usecase

import (
	"context"
	"io"

	"act-reconciliation/internal/domain"
)

// TableRepository defines the interface for loading one side of a
// reconciliation. The usecase layer depends on this interface, not on a
// concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type TableRepository interface {
	GetTable(ctx context.Context, path string, kind domain.SourceKind) (*domain.Table, error)
}

// ReportExporter renders a finished report, e.g. as a workbook.
type ReportExporter interface {
	Export(ctx context.Context, w io.Writer, report *domain.ReconciliationReport) error
}
