package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/gateway"
	"act-reconciliation/internal/matcher"
	"act-reconciliation/internal/usecase"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Reconciler is the part of the use case the HTTP layer drives.
type Reconciler interface {
	ReconcileTables(ctx context.Context, left, right *domain.Table, opts usecase.Options) (*domain.ReconciliationReport, error)
	Export(ctx context.Context, w io.Writer, report *domain.ReconciliationReport) error
}

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	reconciler Reconciler
	logger     *slog.Logger
	settings   Settings
}

// TableInput is one side of a JSON reconcile request.
type TableInput struct {
	Kind    domain.SourceKind `json:"kind"`
	Headers []string          `json:"headers"`
	Rows    []domain.Row      `json:"rows"`
}

func (in TableInput) table() *domain.Table {
	return domain.NewTable(in.Kind, in.Headers, in.Rows)
}

// ReconcileRequest is the body of the JSON reconcile endpoints.
type ReconcileRequest struct {
	Left    TableInput      `json:"left"`
	Right   TableInput      `json:"right"`
	Options usecase.Options `json:"options"`
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps use case errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingColumn), errors.Is(err, matcher.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request) (*ReconcileRequest, bool) {
	if h.settings.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.settings.MaxUploadBytes)
	}
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func (h *Handlers) reconcile(w http.ResponseWriter, r *http.Request, left, right *domain.Table, opts usecase.Options) (*domain.ReconciliationReport, bool) {
	if opts.Matcher.Tolerance == 0 {
		opts.Matcher.Tolerance = h.settings.ProximityTolerance
	}
	if opts.Rates.CommissionRate == 0 {
		opts.Rates.CommissionRate = h.settings.CommissionRate
	}
	report, err := h.reconciler.ReconcileTables(r.Context(), left, right, opts)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Reconciliation failed", "error", err)
		}
		h.writeError(w, status, err.Error())
		return nil, false
	}
	return report, true
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Reconcile ---

func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	report, ok := h.reconcile(w, r, req.Left.table(), req.Right.table(), req.Options)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// --- ReconcileExport ---

func (h *Handlers) ReconcileExport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	report, ok := h.reconcile(w, r, req.Left.table(), req.Right.table(), req.Options)
	if !ok {
		return
	}
	h.writeWorkbook(w, r, report)
}

func (h *Handlers) writeWorkbook(w http.ResponseWriter, r *http.Request, report *domain.ReconciliationReport) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="reconciliation_%s.xlsx"`, report.GeneratedAt.Format("20060102_150405")))
	if err := h.reconciler.Export(r.Context(), w, report); err != nil {
		// Headers may already be on the wire; log and give up.
		h.logger.Error("Failed to export report", "error", err)
	}
}

// --- ReconcileUpload ---

// ReconcileUpload accepts a multipart form with "left" and "right" files
// (.csv or .xlsx), optional "left_kind"/"right_kind" values and an "options"
// field holding the JSON options. Setting "format" to "xlsx" returns the
// workbook instead of JSON.
func (h *Handlers) ReconcileUpload(w http.ResponseWriter, r *http.Request) {
	if h.settings.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.settings.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	var opts usecase.Options
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid options: "+err.Error())
			return
		}
	}

	left, err := formTable(r, "left", kindOr(r.FormValue("left_kind"), domain.SourceActReport))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	right, err := formTable(r, "right", kindOr(r.FormValue("right_kind"), domain.SourceInsurance))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, ok := h.reconcile(w, r, left, right, opts)
	if !ok {
		return
	}
	if r.FormValue("format") == "xlsx" {
		h.writeWorkbook(w, r, report)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func formTable(r *http.Request, field string, kind domain.SourceKind) (*domain.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s file field is required: %w", field, err)
	}
	defer file.Close()

	table, err := gateway.ReadTable(file, header.Filename, kind)
	if err != nil {
		return nil, fmt.Errorf("could not read %s file: %w", field, err)
	}
	return table, nil
}

func kindOr(s string, fallback domain.SourceKind) domain.SourceKind {
	if s == "" {
		return fallback
	}
	return domain.SourceKind(s)
}
