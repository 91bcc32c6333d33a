package worker

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/sheets"
)

// ExportWorker writes queued report exports to Google Sheets.
type ExportWorker struct {
	sheets sheets.ReportWriter
	logger *slog.Logger
}

func NewExportWorker(writer sheets.ReportWriter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		sheets: writer,
		logger: logger,
	}
}

// HandleExportJob processes a single export job from AMQP. A returned error
// makes the consumer requeue the job.
func (w *ExportWorker) HandleExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error {
	w.logger.InfoContext(ctx, "Processing export job",
		"job_id", msg.JobID,
		"title", msg.Title,
		"rows", len(msg.Rows),
		"queued_at", msg.Timestamp)

	title := msg.Title
	if title == "" {
		title = "gastos-" + msg.JobID
	}

	ref, err := w.sheets.WriteReport(ctx, title, msg.Rows)
	if err != nil {
		return fmt.Errorf("write report %s: %w", msg.JobID, err)
	}

	w.logger.InfoContext(ctx, "Export job written to Google Sheets",
		"job_id", msg.JobID,
		"sheets_ref", ref)
	return nil
}

// JobSource delivers export jobs to a handler until ctx is done.
type JobSource interface {
	ConsumeExportJobs(ctx context.Context, handler func(context.Context, *amqp.ExportJobMessage) error) error
}

// Run consumes jobs from src until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, src JobSource) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := src.ConsumeExportJobs(ctx, w.HandleExportJob)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Export worker stopped")
		return nil
	}
	return err
}
