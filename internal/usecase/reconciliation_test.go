package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/matcher"
	"act-reconciliation/internal/usecase"
	mock_usecase "act-reconciliation/internal/usecase/mocks"
	"act-reconciliation/internal/validator"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func actTable(rows ...domain.Row) *domain.Table {
	return domain.NewTable(domain.SourceActReport, []string{"order_id", "amount"}, rows)
}

func insuranceTable(rows ...domain.Row) *domain.Table {
	return domain.NewTable(domain.SourceInsurance,
		[]string{"Номер", "amount_b2b2c", "commission", "amount_sell"}, rows)
}

func act(id string, amount float64) domain.Row {
	return domain.Row{"order_id": domain.String(id), "amount": domain.Number(amount)}
}

func policy(id string, base, commission, net float64) domain.Row {
	return domain.Row{
		"Номер":        domain.String(id),
		"amount_b2b2c": domain.Number(base),
		"commission":   domain.Number(commission),
		"amount_sell":  domain.Number(net),
	}
}

func defaultRequest() usecase.Request {
	return usecase.Request{
		Left:  usecase.Source{Path: "/exports/act_march.xlsx", Kind: domain.SourceActReport},
		Right: usecase.Source{Path: "/exports/insurance_march.xlsx", Kind: domain.SourceInsurance},
		Options: usecase.Options{
			Matcher: matcher.Config{
				Mode:  matcher.ModeKey,
				Left:  matcher.Columns{Key: "order_id", Amount: "amount"},
				Right: matcher.Columns{Key: "Номер", Amount: "amount_b2b2c"},
			},
			Arithmetic: &usecase.ArithmeticCheck{
				Side:    domain.SideRight,
				Columns: validator.Columns{Base: "amount_b2b2c", Commission: "commission", Net: "amount_sell"},
			},
		},
	}
}

func TestReconciliationUseCase_Reconcile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name           string
		req            usecase.Request
		left           *domain.Table
		right          *domain.Table
		leftRepoError  error
		rightRepoError error
		wantSummary    domain.Summary
		wantIssues     int
		wantFlags      []string
		wantErr        error
	}{
		{
			name:  "successful reconciliation",
			req:   defaultRequest(),
			left:  actTable(act("A1", 1000), act("A2", 500)),
			right: insuranceTable(policy("A1", 1000, 120, 880), policy("A2", 500, 60, 440)),
			wantSummary: domain.Summary{
				TotalMatched: 2, TotalUnmatched: 0, MatchPercentage: 100,
			},
			wantFlags: []string{},
		},
		{
			name:  "unmatched, duplicates and arithmetic issues",
			req:   defaultRequest(),
			left:  actTable(act("A1", 1000), act("A1", 999), act("B1", 10)),
			right: insuranceTable(policy("A1", 1000, 100, 900), policy("C1", 10, 1.2, 8.8)),
			wantSummary: domain.Summary{
				TotalMatched: 1, TotalUnmatched: 3, MatchPercentage: 25,
			},
			wantIssues: 2,
			wantFlags:  []string{"high_unmatched_ratio", "formula_errors", "duplicate_keys"},
		},
		{
			name:          "left repository error",
			req:           defaultRequest(),
			leftRepoError: errors.New("failed to read act report"),
			wantErr:       errors.New("could not get left table"),
		},
		{
			name:           "right repository error",
			req:            defaultRequest(),
			left:           actTable(),
			rightRepoError: errors.New("failed to read insurance export"),
			wantErr:        errors.New("could not get right table"),
		},
		{
			name: "missing key column",
			req: func() usecase.Request {
				r := defaultRequest()
				r.Matcher.Left.Key = "policy"
				return r
			}(),
			left:    actTable(act("A1", 1)),
			right:   insuranceTable(),
			wantErr: domain.ErrMissingColumn,
		},
		{
			name: "missing arithmetic column",
			req: func() usecase.Request {
				r := defaultRequest()
				r.Arithmetic.Columns.Net = "net"
				return r
			}(),
			left:    actTable(),
			right:   insuranceTable(),
			wantErr: domain.ErrMissingColumn,
		},
		{
			name: "unknown arithmetic side",
			req: func() usecase.Request {
				r := defaultRequest()
				r.Arithmetic.Side = "Right"
				return r
			}(),
			left:    actTable(act("A1", 1000)),
			right:   insuranceTable(policy("A1", 1000, 120, 880)),
			wantErr: matcher.ErrInvalidConfig,
		},
		{
			name: "negative commission rate",
			req: func() usecase.Request {
				r := defaultRequest()
				r.Rates.CommissionRate = -0.12
				return r
			}(),
			left:    actTable(act("A1", 1000)),
			right:   insuranceTable(policy("A1", 1000, 120, 880)),
			wantErr: matcher.ErrInvalidConfig,
		},
		{
			name:        "empty transactions",
			req:         defaultRequest(),
			left:        actTable(),
			right:       insuranceTable(),
			wantSummary: domain.Summary{},
			wantFlags:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mock_usecase.NewMockTableRepository(ctrl)

			if tt.leftRepoError != nil {
				repo.EXPECT().
					GetTable(gomock.Any(), tt.req.Left.Path, domain.SourceActReport).
					Return(nil, tt.leftRepoError)
			} else {
				repo.EXPECT().
					GetTable(gomock.Any(), tt.req.Left.Path, domain.SourceActReport).
					Return(tt.left, nil)

				if tt.rightRepoError != nil {
					repo.EXPECT().
						GetTable(gomock.Any(), tt.req.Right.Path, domain.SourceInsurance).
						Return(nil, tt.rightRepoError)
				} else {
					repo.EXPECT().
						GetTable(gomock.Any(), tt.req.Right.Path, domain.SourceInsurance).
						Return(tt.right, nil)
				}
			}

			uc := usecase.NewReconciliationUseCase(repo, nil, quietLogger)
			got, gotErr := uc.Reconcile(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.Error(t, gotErr)
				assert.Nil(t, got)
				switch tt.wantErr {
				case domain.ErrMissingColumn, matcher.ErrInvalidConfig:
					assert.ErrorIs(t, gotErr, tt.wantErr)
				default:
					assert.Contains(t, gotErr.Error(), tt.wantErr.Error())
				}
				return
			}

			require.NoError(t, gotErr)
			require.NotNil(t, got)
			assert.Equal(t, "key", got.Mode)
			assert.Equal(t, tt.wantSummary.TotalMatched, got.Result.Summary.TotalMatched)
			assert.Equal(t, tt.wantSummary.TotalUnmatched, got.Result.Summary.TotalUnmatched)
			assert.InDelta(t, tt.wantSummary.MatchPercentage, got.Result.Summary.MatchPercentage, 0.001)
			assert.Len(t, got.ArithmeticIssues, tt.wantIssues)
			assert.False(t, got.GeneratedAt.IsZero())

			cases := make([]string, 0, len(got.ReviewFlags))
			for _, f := range got.ReviewFlags {
				cases = append(cases, f.Case)
			}
			assert.Equal(t, tt.wantFlags, cases)
		})
	}
}

func TestReconciliationUseCase_ReconcileTables_Proximity(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(nil, nil, quietLogger)

	left := domain.NewTable(domain.SourceActReport, []string{"amount"}, []domain.Row{{"amount": domain.Number(1000)}})
	right := domain.NewTable(domain.SourceInsurance, []string{"insured"}, []domain.Row{{"insured": domain.String("1999")}})

	got, err := uc.ReconcileTables(context.Background(), left, right, usecase.Options{
		Matcher: matcher.Config{
			Mode:      matcher.ModeProximity,
			Left:      matcher.Columns{Amount: "amount"},
			Right:     matcher.Columns{Amount: "insured"},
			Tolerance: 1000,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "proximity", got.Mode)
	require.Len(t, got.Result.Matched, 1)
	assert.Equal(t, matcher.ReasonProximity, got.Result.Matched[0].Reason)
	assert.Empty(t, got.ArithmeticIssues)
	require.Len(t, got.ReviewFlags, 1)
	assert.Equal(t, "large_amount_differences", got.ReviewFlags[0].Case)
}

func TestReconciliationUseCase_ReconcileTables_Cancelled(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(nil, nil, quietLogger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.ReconcileTables(ctx, actTable(), insuranceTable(), defaultRequest().Options)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconciliationUseCase_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	report := &domain.ReconciliationReport{Mode: "key"}

	t.Run("delegates to exporter", func(t *testing.T) {
		exporter := mock_usecase.NewMockReportExporter(ctrl)
		var buf bytes.Buffer
		exporter.EXPECT().Export(gomock.Any(), &buf, report).Return(nil)

		uc := usecase.NewReconciliationUseCase(nil, exporter, quietLogger)
		assert.NoError(t, uc.Export(context.Background(), &buf, report))
	})

	t.Run("wraps exporter error", func(t *testing.T) {
		exporter := mock_usecase.NewMockReportExporter(ctrl)
		exporter.EXPECT().Export(gomock.Any(), gomock.Any(), report).Return(errors.New("disk full"))

		uc := usecase.NewReconciliationUseCase(nil, exporter, quietLogger)
		err := uc.Export(context.Background(), io.Discard, report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("no exporter", func(t *testing.T) {
		uc := usecase.NewReconciliationUseCase(nil, nil, quietLogger)
		assert.Error(t, uc.Export(context.Background(), io.Discard, report))
	})
}
