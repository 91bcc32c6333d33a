package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/cache"
	"gastos/internal/cli"
	apphttp "gastos/internal/http"
	"gastos/internal/locale"
	"gastos/internal/report"
	"gastos/internal/services"
	gsheet "gastos/internal/sheets/google"
	"gastos/web"
)

func main() {
	cfg := cli.LoadAndValidateConfig(slog.Default())
	logger := cli.SetupLogger(cfg.LogLevel)

	formatter, err := locale.New(cfg.Locale, cfg.Currency)
	if err != nil {
		logger.Error("Failed to initialize locale", "error", err, "locale", cfg.Locale, "currency", cfg.Currency)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Close()

	store := services.NewTransactionStore(result.Backend, formatter)

	// Export artifacts are cached per store revision
	artifacts := cache.NewLRUCache[report.Artifact](32, cfg.ExportCacheTTL)
	caches := cache.NewManager(logger.Logger)
	caches.Register(artifacts)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	reportOpts := []services.ReportOption{services.WithArtifactCache(artifacts)}

	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(context.Background(), cli.SheetsOptions(cfg))
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		reportOpts = append(reportOpts, services.WithSheetsWriter(sheetsClient))
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The tracker works without a broker; events are simply not published.
			logger.Warn("AMQP unavailable, continuing without messaging", "error", err)
		} else {
			store.Subscribe(services.PublishingObserver(amqpClient))
			if cfg.SheetsEnabled() {
				reportOpts = append(reportOpts, services.WithExportJobs(amqpClient))
			}
			logger.Info("AMQP messaging enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reports := services.NewReportService(store, report.NewExporter(formatter), reportOpts...)

	srv := apphttp.NewServer(":"+cfg.Port, store, reports, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Templates:          web.TemplatesFS,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
	})

	logger.Info("Starting gastos server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"locale", formatter.Tag(),
		"currency", formatter.CurrencyCode())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
