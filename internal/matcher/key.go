package matcher

import (
	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/index"
)

// MatchByKey pairs records sharing a key whose normalized amounts are equal.
// Every equal-amount combination inside a key group becomes its own pair, so
// one-to-many anomalies stay visible.
func MatchByKey(left, right *index.Index, leftAmount, rightAmount string) []domain.MatchedPair {
	pairs := make([]domain.MatchedPair, 0)
	for _, key := range left.Keys() {
		rrows := right.Rows(key)
		if len(rrows) == 0 {
			continue
		}
		lrows := left.Rows(key)
		amounts := amountSet(lrows, leftAmount)
		for _, r := range rrows {
			amount := r.Amount(rightAmount)
			if !amounts[amount] {
				continue
			}
			for _, l := range lrows {
				if l.Amount(leftAmount) == amount {
					pairs = append(pairs, domain.MatchedPair{
						Left:       l,
						Right:      r,
						Confidence: KeyMatchConfidence,
						Reason:     ReasonKeyAmount,
					})
				}
			}
		}
	}
	return pairs
}

// LeftNotFound returns the left records for which no right record under the
// same key carries an equal amount. A key absent on the right leaves its
// whole group unmatched. Unlike a group-level rule, a key that produced some
// pair still reports its left rows that found none, so every record lands in
// exactly one of matched and unmatched.
func LeftNotFound(left, right *index.Index, leftAmount, rightAmount string) []domain.Record {
	return notFound(left, right, leftAmount, rightAmount)
}

// RightNotFound is the mirror pass of LeftNotFound and is authoritative for
// the right side.
func RightNotFound(left, right *index.Index, leftAmount, rightAmount string) []domain.Record {
	return notFound(right, left, rightAmount, leftAmount)
}

func notFound(from, against *index.Index, fromAmount, againstAmount string) []domain.Record {
	missing := make([]domain.Record, 0)
	for _, key := range from.Keys() {
		rows := from.Rows(key)
		others := against.Rows(key)
		if len(others) == 0 {
			missing = append(missing, rows...)
			continue
		}
		amounts := amountSet(others, againstAmount)
		for _, rec := range rows {
			if !amounts[rec.Amount(fromAmount)] {
				missing = append(missing, rec)
			}
		}
	}
	return missing
}

func amountSet(records []domain.Record, column string) map[float64]bool {
	set := make(map[float64]bool, len(records))
	for _, rec := range records {
		set[rec.Amount(column)] = true
	}
	return set
}
