// Package validator checks the commission arithmetic of an export:
// commission is a fixed share of the base amount and net is what remains.
package validator

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"act-reconciliation/internal/domain"
)

// DefaultCommissionRate is the share of the base amount taken as commission.
const DefaultCommissionRate = 0.12

// Tolerance is the largest absolute difference accepted by either check.
const Tolerance = 0.01

// Columns names the three columns taking part in the check.
type Columns struct {
	Base       string `json:"base"`
	Commission string `json:"commission"`
	Net        string `json:"net"`
}

// Rates holds the business constants. The zero value uses the defaults.
type Rates struct {
	CommissionRate float64 `json:"commission_rate,omitempty"`
}

// Validate rejects a commission rate outside (0, 1). Zero is accepted and
// means DefaultCommissionRate.
func (r Rates) Validate() error {
	if r.CommissionRate == 0 {
		return nil
	}
	if r.CommissionRate < 0 || r.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be between 0 and 1, got %v", r.CommissionRate)
	}
	return nil
}

func (r Rates) commissionRate() float64 {
	if r.CommissionRate == 0 {
		return DefaultCommissionRate
	}
	return r.CommissionRate
}

// Validator verifies commission == round(base*rate, 2) and
// net == round(base-expectedCommission, 2).
type Validator struct {
	rate      decimal.Decimal
	tolerance decimal.Decimal
}

// New creates a validator for rates.
func New(rates Rates) *Validator {
	return &Validator{
		rate:      decimal.NewFromFloat(rates.commissionRate()),
		tolerance: decimal.NewFromFloat(Tolerance),
	}
}

// Check returns one issue per failed check, in row order. A row failing both
// checks appears twice. Missing columns are reported as *domain.ColumnError
// for side.
func (v *Validator) Check(table *domain.Table, side domain.Side, cols Columns) ([]domain.ArithmeticIssue, error) {
	required := []struct{ role, column string }{
		{"base amount", cols.Base},
		{"commission", cols.Commission},
		{"net amount", cols.Net},
	}
	for _, c := range required {
		if err := domain.RequireColumn(table, side, c.role, c.column); err != nil {
			return nil, err
		}
	}

	issues := make([]domain.ArithmeticIssue, 0)
	for _, rec := range table.Rows() {
		base := decimal.NewFromFloat(rec.Amount(cols.Base))
		commission := decimal.NewFromFloat(rec.Amount(cols.Commission))
		net := decimal.NewFromFloat(rec.Amount(cols.Net))

		expectedCommission := base.Mul(v.rate).Round(2)
		expectedNet := base.Sub(expectedCommission).Round(2)

		if commission.Sub(expectedCommission).Abs().GreaterThan(v.tolerance) {
			issues = append(issues, domain.ArithmeticIssue{
				Row: rec,
				Reason: fmt.Sprintf("commission != %s%% of base amount (got %s, expected %s)",
					formatNumber(v.rate.Mul(decimal.NewFromInt(100))), formatNumber(commission), formatNumber(expectedCommission)),
			})
		}
		if net.Sub(expectedNet).Abs().GreaterThan(v.tolerance) {
			issues = append(issues, domain.ArithmeticIssue{
				Row: rec,
				Reason: fmt.Sprintf("net != base amount - commission (got %s, expected %s)",
					formatNumber(net), formatNumber(expectedNet)),
			})
		}
	}
	return issues, nil
}

func formatNumber(d decimal.Decimal) string {
	f, _ := d.Float64()
	return strconv.FormatFloat(f, 'f', -1, 64)
}
