package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"khata/internal/cli"
	apphttp "khata/internal/http"
	"khata/internal/log"
	"khata/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitStore(context.Background(), logger, cfg)
	publisher, closePublisher := cli.NewPublisher(logger, cfg)
	svc := services.NewLedgerService(res.Store, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:          svc,
		Logger:          logger.WithComponent(log.ComponentHTTP),
		RowsPerPage:     cfg.ReportRowsPerPage,
		WritesPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		closePublisher()
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close record store", log.FieldError, err)
		}
	})

	logger.Info("Starting khata server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
