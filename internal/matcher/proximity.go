package matcher

import (
	"math"

	"act-reconciliation/internal/domain"
)

// MatchByProximity pairs each left record with the first right record whose
// amount differs by strictly less than tolerance. A right record may serve
// several left records. Right records never selected are returned as
// unmatched, as are left records that found no partner.
func MatchByProximity(left, right []domain.Record, leftAmount, rightAmount string, tolerance float64) ([]domain.MatchedPair, []domain.Record, []domain.Record) {
	pairs := make([]domain.MatchedPair, 0)
	leftMissing := make([]domain.Record, 0)
	used := make([]bool, len(right))

	for _, l := range left {
		amount := l.Amount(leftAmount)
		found, diff := -1, 0.0
		for i, r := range right {
			if d := math.Abs(r.Amount(rightAmount) - amount); d < tolerance {
				found, diff = i, d
				break
			}
		}
		if found < 0 {
			leftMissing = append(leftMissing, l)
			continue
		}
		used[found] = true
		pairs = append(pairs, domain.MatchedPair{
			Left:       l,
			Right:      right[found],
			Confidence: ProximityConfidence,
			Reason:     ReasonProximity,
			AmountDiff: diff,
		})
	}

	rightMissing := make([]domain.Record, 0)
	for i, r := range right {
		if !used[i] {
			rightMissing = append(rightMissing, r)
		}
	}
	return pairs, leftMissing, rightMissing
}
