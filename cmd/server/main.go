package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"act-reconciliation/internal/api"
	"act-reconciliation/internal/config"
	"act-reconciliation/internal/gateway"
	"act-reconciliation/internal/logger"
	"act-reconciliation/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)

	reconciliationUseCase := usecase.NewReconciliationUseCase(
		gateway.NewTableRepository(), gateway.NewExcelExporter(), log)
	router := api.NewRouter(reconciliationUseCase, log, api.Settings{
		MaxUploadBytes:     cfg.MaxUploadSizeBytes,
		ProximityTolerance: cfg.ProximityTolerance,
		CommissionRate:     cfg.CommissionRate,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		}
	}()

	log.Info("Act reconciliation server listening",
		"port", cfg.Port,
		"endpoints", []string{
			"GET    /healthz",
			"POST   /api/v1/reconcile",
			"POST   /api/v1/reconcile/export",
			"POST   /api/v1/reconcile/upload",
		})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
