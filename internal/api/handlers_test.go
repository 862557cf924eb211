package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/gateway"
	"act-reconciliation/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRouter(maxUpload int64) http.Handler {
	uc := usecase.NewReconciliationUseCase(gateway.NewTableRepository(), gateway.NewExcelExporter(), quietLogger)
	return NewRouter(uc, quietLogger, Settings{MaxUploadBytes: maxUpload, ProximityTolerance: 1000, CommissionRate: 0.12})
}

const reconcileBody = `{
  "left": {
    "kind": "act_report",
    "headers": ["order_id", "amount"],
    "rows": [{"order_id": "A1", "amount": "1 000,00"}, {"order_id": "A2", "amount": 500}]
  },
  "right": {
    "kind": "insurance",
    "headers": ["policy", "base", "commission", "net"],
    "rows": [
      {"policy": "A1", "base": 1000, "commission": 120, "net": 880},
      {"policy": "A2", "base": 500, "commission": 50, "net": 450}
    ]
  },
  "options": {
    "matcher": {"mode": "key", "left": {"key": "order_id", "amount": "amount"}, "right": {"key": "policy", "amount": "base"}},
    "arithmetic": {"side": "right", "columns": {"base": "base", "commission": "commission", "net": "net"}}
  }
}`

func TestHandlers_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandlers_Reconcile(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", strings.NewReader(reconcileBody))
	newTestRouter(0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report domain.ReconciliationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "key", report.Mode)
	assert.Equal(t, domain.Summary{TotalMatched: 2, TotalUnmatched: 0, MatchPercentage: 100}, report.Result.Summary)
	require.Len(t, report.Result.Matched, 2)
	assert.Equal(t, "act_0", report.Result.Matched[0].Left.ID)
	assert.Equal(t, "ins_0", report.Result.Matched[0].Right.ID)

	// A2: commission 50 instead of 60, net 450 instead of 440.
	require.Len(t, report.ArithmeticIssues, 2)
	assert.Equal(t, "ins_1", report.ArithmeticIssues[0].Row.ID)
}

func TestHandlers_Reconcile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		maxUpload  int64
		wantStatus int
		wantErr    string
	}{
		{
			name:       "malformed body",
			body:       `{"left":`,
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "body too large",
			body:       reconcileBody,
			maxUpload:  16,
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "missing column",
			body:       strings.Replace(reconcileBody, `"key": "policy"`, `"key": "Номер"`, 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    `"Номер" not found in right input`,
		},
		{
			name:       "unknown mode",
			body:       strings.Replace(reconcileBody, `"mode": "key"`, `"mode": "fuzzy"`, 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    "unknown mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", strings.NewReader(tt.body))
			newTestRouter(tt.maxUpload).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
		})
	}
}

func TestHandlers_ReconcileExport(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/export", strings.NewReader(reconcileBody))
	newTestRouter(0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reconciliation_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Matched", "Unmatched", "Duplicates", "Arithmetic"}, f.GetSheetList())

	matched, err := f.GetRows("Matched")
	require.NoError(t, err)
	assert.Len(t, matched, 3)
}

func TestHandlers_ReconcileUpload(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("left", "act.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("order_id;amount\nA1;1000\nB1;10\n"))
	require.NoError(t, err)

	part, err = mw.CreateFormFile("right", "insurance.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("policy,base\nA1,1000\n"))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("options",
		`{"matcher":{"left":{"key":"order_id","amount":"amount"},"right":{"key":"policy","amount":"base"}}}`))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	newTestRouter(1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report domain.ReconciliationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Result.Summary.TotalMatched)
	require.Len(t, report.Result.Unmatched.Left, 1)
	assert.Equal(t, "act_1", report.Result.Unmatched.Left[0].ID)
}

func TestHandlers_ReconcileUpload_MissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("options", `{}`))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	newTestRouter(0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "left file field is required")
}

func TestStatusFor(t *testing.T) {
	colErr := &domain.ColumnError{Side: domain.SideLeft, Role: "key", Column: "id"}
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(colErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk on fire")))
}
