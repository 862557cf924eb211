package usecase

import (
	"fmt"
	"math"
	"sort"

	"act-reconciliation/internal/domain"
)

const (
	// UnmatchedRatioThreshold flags runs where more than this share of the
	// outcome is unmatched.
	UnmatchedRatioThreshold = 0.3
	// FormulaErrorRatioThreshold flags runs with more arithmetic issues than
	// this share of matched pairs.
	FormulaErrorRatioThreshold = 0.2
	// LargeAmountDiffThreshold flags runs with a matched pair whose amounts
	// differ by more than this.
	LargeAmountDiffThreshold = 100.0
)

// ReviewFlags lists the reasons a report deserves manual review, most urgent
// first.
func ReviewFlags(report *domain.ReconciliationReport) []domain.ReviewFlag {
	flags := make([]domain.ReviewFlag, 0)
	summary := report.Result.Summary

	if total := summary.TotalMatched + summary.TotalUnmatched; total > 0 {
		ratio := float64(summary.TotalUnmatched) / float64(total)
		if ratio > UnmatchedRatioThreshold {
			flags = append(flags, domain.ReviewFlag{
				Case:        "high_unmatched_ratio",
				Description: fmt.Sprintf("high share of unmatched records: %d%%", int(math.Round(ratio*100))),
				Priority:    domain.PriorityHigh,
			})
		}
	}

	large := 0
	for _, p := range report.Result.Matched {
		if p.AmountDiff > LargeAmountDiffThreshold {
			large++
		}
	}
	if large > 0 {
		flags = append(flags, domain.ReviewFlag{
			Case:        "large_amount_differences",
			Description: fmt.Sprintf("%d matched pairs differ by more than %v", large, LargeAmountDiffThreshold),
			Priority:    domain.PriorityMedium,
		})
	}

	if n := len(report.ArithmeticIssues); n > 0 && float64(n) > float64(summary.TotalMatched)*FormulaErrorRatioThreshold {
		flags = append(flags, domain.ReviewFlag{
			Case:        "formula_errors",
			Description: fmt.Sprintf("%d commission formula errors", n),
			Priority:    domain.PriorityMedium,
		})
	}

	if n := len(report.Result.Duplicates); n > 0 {
		flags = append(flags, domain.ReviewFlag{
			Case:        "duplicate_keys",
			Description: fmt.Sprintf("%d duplicate key groups", n),
			Priority:    domain.PriorityLow,
		})
	}

	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Priority.Rank() > flags[j].Priority.Rank()
	})
	return flags
}
