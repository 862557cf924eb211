package usecase

import (
	"context"

	"act-reconciliation/internal/domain"
)

// BulkOutcome is the result of one pair in a bulk run. Exactly one of Report
// and Err is set.
type BulkOutcome struct {
	Request Request                      `json:"request"`
	Report  *domain.ReconciliationReport `json:"report,omitempty"`
	Err     error                        `json:"-"`
	Error   string                       `json:"error,omitempty"`
}

// ReconcileBulk reconciles the pairs one after another. A failing pair is
// recorded and the batch moves on; cancellation is honoured between pairs
// and returns the outcomes gathered so far together with ctx's error.
func (uc *ReconciliationUseCase) ReconcileBulk(ctx context.Context, reqs []Request) ([]BulkOutcome, error) {
	outcomes := make([]BulkOutcome, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("Bulk reconciliation cancelled", "completed", i, "total", len(reqs))
			return outcomes, err
		}

		uc.logger.Info("Reconciling pair", "index", i+1, "total", len(reqs),
			"left", req.Left.Path, "right", req.Right.Path)

		report, err := uc.Reconcile(ctx, req)
		outcome := BulkOutcome{Request: req, Report: report, Err: err}
		if err != nil {
			outcome.Error = err.Error()
			uc.logger.Error("Pair failed", "index", i+1, "error", err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
