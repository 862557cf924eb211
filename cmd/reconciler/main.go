package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"act-reconciliation/internal/config"
	"act-reconciliation/internal/domain"
	"act-reconciliation/internal/gateway"
	"act-reconciliation/internal/logger"
	"act-reconciliation/internal/matcher"
	"act-reconciliation/internal/usecase"
	"act-reconciliation/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Define command-line flags
	leftFiles := flag.String("left", "", "Comma-separated paths to act report files, .csv or .xlsx (required)")
	rightFiles := flag.String("right", "", "Comma-separated paths to insurance report files, paired with -left (required)")
	leftKind := flag.String("left-kind", string(domain.SourceActReport), "Source kind of the left files")
	rightKind := flag.String("right-kind", string(domain.SourceInsurance), "Source kind of the right files")
	leftKey := flag.String("left-key", "", "Key column of the left files")
	leftAmount := flag.String("left-amount", "", "Amount column of the left files (required)")
	rightKey := flag.String("right-key", "", "Key column of the right files")
	rightAmount := flag.String("right-amount", "", "Amount column of the right files (required)")
	mode := flag.String("mode", string(matcher.ModeKey), "Matching mode: key or proximity")
	tolerance := flag.Float64("tolerance", cfg.ProximityTolerance, "Amount tolerance for proximity mode")
	arithSide := flag.String("arith-side", "", "Side to run the commission check on: left or right (optional)")
	baseCol := flag.String("base", "", "Base amount column for the commission check")
	commissionCol := flag.String("commission", "", "Commission column for the commission check")
	netCol := flag.String("net", "", "Net amount column for the commission check")
	rate := flag.Float64("rate", cfg.CommissionRate, "Expected commission rate")
	out := flag.String("out", "", "Write the report workbook to this .xlsx path (single pair only)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flag.Parse()

	// Validate required flags
	if *leftFiles == "" || *rightFiles == "" || *leftAmount == "" || *rightAmount == "" {
		fmt.Println("Error: flags -left, -right, -left-amount and -right-amount are required.")
		flag.Usage()
		os.Exit(1)
	}

	if *rate <= 0 || *rate >= 1 {
		fmt.Printf("Error: -rate must be between 0 and 1, got %v.\n", *rate)
		os.Exit(1)
	}
	if *arithSide != "" && *arithSide != string(domain.SideLeft) && *arithSide != string(domain.SideRight) {
		fmt.Printf("Error: -arith-side must be left or right, got %q.\n", *arithSide)
		os.Exit(1)
	}

	lefts := splitList(*leftFiles)
	rights := splitList(*rightFiles)
	if len(lefts) != len(rights) {
		fmt.Printf("Error: -left has %d files but -right has %d.\n", len(lefts), len(rights))
		os.Exit(1)
	}
	if *out != "" && len(lefts) > 1 {
		fmt.Println("Error: -out can only be used with a single file pair.")
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays a clean JSON report.
	log := logger.New(os.Stderr, *logLevel)

	opts := usecase.Options{
		Matcher: matcher.Config{
			Mode:      matcher.Mode(*mode),
			Left:      matcher.Columns{Key: *leftKey, Amount: *leftAmount},
			Right:     matcher.Columns{Key: *rightKey, Amount: *rightAmount},
			Tolerance: *tolerance,
		},
		Rates: validator.Rates{CommissionRate: *rate},
	}
	if *arithSide != "" {
		opts.Arithmetic = &usecase.ArithmeticCheck{
			Side:    domain.Side(*arithSide),
			Columns: validator.Columns{Base: *baseCol, Commission: *commissionCol, Net: *netCol},
		}
	}

	// --- Dependency Injection (Wiring the application) ---
	repo := gateway.NewTableRepository()
	exporter := gateway.NewExcelExporter()
	reconciliationUseCase := usecase.NewReconciliationUseCase(repo, exporter, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	requests := make([]usecase.Request, len(lefts))
	for i := range lefts {
		requests[i] = usecase.Request{
			Left:    usecase.Source{Path: lefts[i], Kind: domain.SourceKind(*leftKind)},
			Right:   usecase.Source{Path: rights[i], Kind: domain.SourceKind(*rightKind)},
			Options: opts,
		}
	}

	// --- Execute the Usecase ---
	var result any
	if len(requests) == 1 {
		report, err := reconciliationUseCase.Reconcile(ctx, requests[0])
		if err != nil {
			fatal(log, "Reconciliation failed", err)
		}
		if *out != "" {
			if err := writeWorkbook(ctx, reconciliationUseCase, *out, report); err != nil {
				fatal(log, "Failed to write report workbook", err)
			}
			log.Info("Report workbook written", "path", *out)
		}
		result = report
	} else {
		outcomes, err := reconciliationUseCase.ReconcileBulk(ctx, requests)
		if err != nil {
			log.Warn("Bulk reconciliation interrupted", "error", err)
		}
		result = outcomes
	}

	// --- Present the Output ---
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatal(log, "Failed to generate JSON report", err)
	}

	fmt.Println(string(output))
}

func writeWorkbook(ctx context.Context, uc *usecase.ReconciliationUseCase, path string, report *domain.ReconciliationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := uc.Export(ctx, f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
