// Package matcher reconciles two record sets into matched pairs, unmatched
// records and duplicate key groups.
//
// Two strategies are offered and never mixed: ModeKey joins on a key column
// and confirms with exact amount equality, ModeProximity pairs by amount
// alone within an absolute tolerance.
package matcher

import (
	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/index"
)

// Reconcile validates cfg against both tables and runs the configured
// strategy. Only configuration errors are returned; dirty data is reported
// through the result.
func Reconcile(left, right *domain.Table, cfg Config) (domain.ReconciliationResult, error) {
	if err := cfg.Validate(left, right); err != nil {
		return domain.ReconciliationResult{}, err
	}
	mode, _ := ParseMode(string(cfg.Mode))

	result := domain.ReconciliationResult{
		Duplicates: make([]domain.DuplicateGroup, 0),
	}

	var leftIx, rightIx *index.Index
	if cfg.Left.Key != "" {
		leftIx = index.Build(domain.SideLeft, left.Rows(), cfg.Left.Key)
		result.Duplicates = append(result.Duplicates, leftIx.Duplicates()...)
	}
	if cfg.Right.Key != "" {
		rightIx = index.Build(domain.SideRight, right.Rows(), cfg.Right.Key)
		result.Duplicates = append(result.Duplicates, rightIx.Duplicates()...)
	}

	switch mode {
	case ModeProximity:
		result.Matched, result.Unmatched.Left, result.Unmatched.Right = MatchByProximity(
			left.Rows(), right.Rows(), cfg.Left.Amount, cfg.Right.Amount, cfg.tolerance())
	default:
		result.Matched = MatchByKey(leftIx, rightIx, cfg.Left.Amount, cfg.Right.Amount)
		result.Unmatched.Left = LeftNotFound(leftIx, rightIx, cfg.Left.Amount, cfg.Right.Amount)
		result.Unmatched.Right = RightNotFound(leftIx, rightIx, cfg.Left.Amount, cfg.Right.Amount)
	}

	result.Summary = domain.NewSummary(
		len(result.Matched),
		len(result.Unmatched.Left)+len(result.Unmatched.Right),
	)
	return result, nil
}
