package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/matcher"
	"act-reconciliation/internal/validator"
)

// Source is one side's export on disk.
type Source struct {
	Path string            `json:"path"`
	Kind domain.SourceKind `json:"kind"`
}

// ArithmeticCheck selects the side and columns for the commission check.
type ArithmeticCheck struct {
	Side    domain.Side       `json:"side"`
	Columns validator.Columns `json:"columns"`
}

// Options configure everything that happens once both tables are loaded.
type Options struct {
	Matcher    matcher.Config   `json:"matcher"`
	Arithmetic *ArithmeticCheck `json:"arithmetic,omitempty"`
	Rates      validator.Rates  `json:"rates"`
}

// Request describes one file pair to reconcile.
type Request struct {
	Left  Source `json:"left"`
	Right Source `json:"right"`
	Options
}

// ReconciliationUseCase orchestrates the reconciliation process.
type ReconciliationUseCase struct {
	repo     TableRepository
	exporter ReportExporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(repo TableRepository, exporter ReportExporter, logger *slog.Logger) *ReconciliationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationUseCase{
		repo:     repo,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Reconcile loads both sides of req and reconciles them.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, req Request) (*domain.ReconciliationReport, error) {
	left, err := uc.repo.GetTable(ctx, req.Left.Path, req.Left.Kind)
	if err != nil {
		return nil, fmt.Errorf("could not get left table: %w", err)
	}

	right, err := uc.repo.GetTable(ctx, req.Right.Path, req.Right.Kind)
	if err != nil {
		return nil, fmt.Errorf("could not get right table: %w", err)
	}

	uc.logger.Debug("Tables loaded",
		"left", req.Left.Path, "leftRows", left.Len(),
		"right", req.Right.Path, "rightRows", right.Len())

	return uc.ReconcileTables(ctx, left, right, req.Options)
}

// ReconcileTables runs the matcher and, when requested, the arithmetic check
// over already parsed tables.
func (uc *ReconciliationUseCase) ReconcileTables(ctx context.Context, left, right *domain.Table, opts Options) (*domain.ReconciliationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := matcher.Reconcile(left, right, opts.Matcher)
	if err != nil {
		return nil, fmt.Errorf("invalid reconciliation request: %w", err)
	}
	mode, _ := matcher.ParseMode(string(opts.Matcher.Mode))

	report := &domain.ReconciliationReport{
		Mode:             string(mode),
		Left:             left,
		Right:            right,
		Result:           result,
		ArithmeticIssues: make([]domain.ArithmeticIssue, 0),
		GeneratedAt:      uc.now(),
	}

	if check := opts.Arithmetic; check != nil {
		var table *domain.Table
		switch check.Side {
		case domain.SideLeft:
			table = left
		case domain.SideRight:
			table = right
		default:
			return nil, fmt.Errorf("invalid arithmetic check: %w: unknown side %q", matcher.ErrInvalidConfig, check.Side)
		}
		if err := opts.Rates.Validate(); err != nil {
			return nil, fmt.Errorf("invalid arithmetic check: %w: %v", matcher.ErrInvalidConfig, err)
		}
		issues, err := validator.New(opts.Rates).Check(table, check.Side, check.Columns)
		if err != nil {
			return nil, fmt.Errorf("invalid arithmetic check: %w", err)
		}
		report.ArithmeticIssues = issues
	}

	report.ReviewFlags = ReviewFlags(report)

	uc.logger.Info("Reconciliation finished",
		"mode", report.Mode,
		"matched", result.Summary.TotalMatched,
		"unmatched", result.Summary.TotalUnmatched,
		"duplicates", len(result.Duplicates),
		"arithmeticIssues", len(report.ArithmeticIssues),
		"matchPercentage", result.Summary.MatchPercentage)

	return report, nil
}

// Export renders report through the configured exporter.
func (uc *ReconciliationUseCase) Export(ctx context.Context, w io.Writer, report *domain.ReconciliationReport) error {
	if uc.exporter == nil {
		return fmt.Errorf("no report exporter configured")
	}
	if err := uc.exporter.Export(ctx, w, report); err != nil {
		return fmt.Errorf("could not export report: %w", err)
	}
	return nil
}
