package matcher

import (
	"errors"
	"fmt"

	"act-reconciliation/internal/domain"
)

// Mode selects the matching strategy.
type Mode string

const (
	// ModeKey joins on a key column and confirms with exact amount equality.
	ModeKey Mode = "key"
	// ModeProximity ignores keys and pairs records whose amounts are close.
	ModeProximity Mode = "proximity"
)

// DefaultProximityTolerance is the absolute amount difference below which
// ModeProximity considers two records the same.
const DefaultProximityTolerance = 1000.0

const (
	ReasonKeyAmount = "amount match within key group"
	ReasonProximity = "sum match"

	KeyMatchConfidence  = 1.0
	ProximityConfidence = 0.8
)

// ErrInvalidConfig is wrapped by configuration errors that are not about a
// missing column.
var ErrInvalidConfig = errors.New("invalid matcher config")

// Columns names the key and amount columns of one side.
type Columns struct {
	Key    string `json:"key"`
	Amount string `json:"amount"`
}

// Config describes one reconciliation run.
type Config struct {
	Mode  Mode    `json:"mode"`
	Left  Columns `json:"left"`
	Right Columns `json:"right"`
	// Tolerance applies to ModeProximity only. Zero means
	// DefaultProximityTolerance.
	Tolerance float64 `json:"tolerance,omitempty"`
}

// ParseMode accepts "key" and "proximity". An empty string means ModeKey.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeKey:
		return ModeKey, nil
	case ModeProximity:
		return ModeProximity, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

func (c Config) tolerance() float64 {
	if c.Tolerance == 0 {
		return DefaultProximityTolerance
	}
	return c.Tolerance
}

// Validate checks the config against both inputs.
func (c Config) Validate(left, right *domain.Table) error {
	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: negative tolerance %v", ErrInvalidConfig, c.Tolerance)
	}

	sides := []struct {
		side  domain.Side
		table *domain.Table
		cols  Columns
	}{
		{domain.SideLeft, left, c.Left},
		{domain.SideRight, right, c.Right},
	}
	for _, s := range sides {
		if s.cols.Amount == "" {
			return fmt.Errorf("%w: %s amount column is required", ErrInvalidConfig, s.side)
		}
		if err := domain.RequireColumn(s.table, s.side, "amount", s.cols.Amount); err != nil {
			return err
		}
		if s.cols.Key == "" {
			if mode == ModeKey {
				return fmt.Errorf("%w: %s key column is required", ErrInvalidConfig, s.side)
			}
			continue
		}
		if err := domain.RequireColumn(s.table, s.side, "key", s.cols.Key); err != nil {
			return err
		}
	}
	return nil
}
