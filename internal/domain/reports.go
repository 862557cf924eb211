package domain

import "time"

// MatchedPair links a left record to a right record.
type MatchedPair struct {
	Left       Record  `json:"left"`
	Right      Record  `json:"right"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	// AmountDiff is the absolute difference of the two normalized amounts.
	// Always zero for key matches.
	AmountDiff float64 `json:"amount_diff"`
}

// Unmatched lists the records of each side that found no counterpart.
type Unmatched struct {
	Left  []Record `json:"left"`
	Right []Record `json:"right"`
}

// DuplicateGroup is a set of two or more rows sharing a key on one side.
type DuplicateGroup struct {
	Side Side     `json:"side"`
	Key  string   `json:"key"`
	Rows []Record `json:"rows"`
}

// Summary provides high-level statistics of a reconciliation run.
type Summary struct {
	TotalMatched    int     `json:"total_matched"`
	TotalUnmatched  int     `json:"total_unmatched"`
	MatchPercentage float64 `json:"match_percentage"`
}

// ReconciliationResult is the matcher's output.
type ReconciliationResult struct {
	Matched    []MatchedPair    `json:"matched"`
	Unmatched  Unmatched        `json:"unmatched"`
	Duplicates []DuplicateGroup `json:"duplicates"`
	Summary    Summary          `json:"summary"`
}

// NewSummary derives the summary counts. Each matched pair counts once in
// the denominator; an empty run reports 0%.
func NewSummary(matched, unmatched int) Summary {
	s := Summary{TotalMatched: matched, TotalUnmatched: unmatched}
	if total := matched + unmatched; total > 0 {
		s.MatchPercentage = float64(matched) / float64(total) * 100
	}
	return s
}

// ArithmeticIssue reports a row that violates the commission invariant.
type ArithmeticIssue struct {
	Row    Record `json:"row"`
	Reason string `json:"reason"`
}

// ReviewPriority orders review flags.
type ReviewPriority string

const (
	PriorityHigh   ReviewPriority = "high"
	PriorityMedium ReviewPriority = "medium"
	PriorityLow    ReviewPriority = "low"
)

// Rank is used for sorting; higher is more urgent.
func (p ReviewPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// ReviewFlag marks a run that needs a human look.
type ReviewFlag struct {
	Case        string         `json:"case"`
	Description string         `json:"description"`
	Priority    ReviewPriority `json:"priority"`
}

// ReconciliationReport is the top-level structure for the final JSON output.
type ReconciliationReport struct {
	Mode             string               `json:"mode"`
	Left             *Table               `json:"-"`
	Right            *Table               `json:"-"`
	Result           ReconciliationResult `json:"result"`
	ArithmeticIssues []ArithmeticIssue    `json:"arithmetic_issues"`
	ReviewFlags      []ReviewFlag         `json:"review_flags"`
	GeneratedAt      time.Time            `json:"generated_at"`
}
