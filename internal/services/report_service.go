package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/report"
	"gastos/internal/sheets"
)

// ErrSheetsNotConfigured is returned by SendToSheets when neither a writer
// nor a job queue is available.
var ErrSheetsNotConfigured = errors.New("google sheets export is not configured")

// ExportJobPublisher hands Sheets exports to the worker.
type ExportJobPublisher interface {
	PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error
}

// SheetsResult describes where a Sheets export went.
type SheetsResult struct {
	Title  string
	Ref    string // sheet range, empty when queued
	JobID  string // set when queued
	Queued bool
	Rows   int
}

// ReportService turns the current transaction sequence into artifacts and
// hands them to the configured sinks.
type ReportService struct {
	store    *TransactionStore
	exporter *report.Exporter
	cache    cache.Cache[report.Artifact]
	writer   sheets.ReportWriter
	jobs     ExportJobPublisher
	now      func() time.Time
}

// ReportOption customizes a ReportService.
type ReportOption func(*ReportService)

// WithArtifactCache caches rendered artifacts by format, store revision and
// export date.
func WithArtifactCache(c cache.Cache[report.Artifact]) ReportOption {
	return func(s *ReportService) { s.cache = c }
}

// WithSheetsWriter writes Sheets exports synchronously.
func WithSheetsWriter(w sheets.ReportWriter) ReportOption {
	return func(s *ReportService) { s.writer = w }
}

// WithExportJobs queues Sheets exports for the worker. It takes precedence
// over WithSheetsWriter.
func WithExportJobs(p ExportJobPublisher) ReportOption {
	return func(s *ReportService) { s.jobs = p }
}

// WithReportClock replaces time.Now.
func WithReportClock(now func() time.Time) ReportOption {
	return func(s *ReportService) { s.now = now }
}

func NewReportService(store *TransactionStore, exporter *report.Exporter, opts ...ReportOption) *ReportService {
	s := &ReportService{
		store:    store,
		exporter: exporter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SheetsEnabled reports whether SendToSheets has somewhere to go.
func (s *ReportService) SheetsEnabled() bool {
	return s.jobs != nil || s.writer != nil
}

// Export renders every stored transaction in format f.
func (s *ReportService) Export(ctx context.Context, f report.Format) (report.Artifact, error) {
	now := s.now()
	key := fmt.Sprintf("%s:%d:%s", f, s.store.Revision(), report.Title(now))

	if s.cache != nil {
		if art, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Export served from cache", "key", key)
			return art, nil
		}
	}

	txs, err := s.store.All(ctx)
	if err != nil {
		return report.Artifact{}, err
	}

	art, err := s.exporter.Export(txs, f, now)
	if err != nil {
		return report.Artifact{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, art)
	}
	return art, nil
}

// SendToSheets writes the report to Google Sheets, through the worker queue
// when one is configured.
func (s *ReportService) SendToSheets(ctx context.Context) (SheetsResult, error) {
	if !s.SheetsEnabled() {
		return SheetsResult{}, ErrSheetsNotConfigured
	}

	txs, err := s.store.All(ctx)
	if err != nil {
		return SheetsResult{}, err
	}
	if len(txs) == 0 {
		return SheetsResult{}, &report.ExportError{Reason: report.ReasonEmptyInput, Format: "sheets", Err: report.ErrEmptyInput}
	}

	title := report.Title(s.now())
	rows := s.exporter.Rows(txs)
	result := SheetsResult{Title: title, Rows: len(rows)}

	if s.jobs != nil {
		result.JobID = uuid.New().String()
		result.Queued = true
		if err := s.jobs.PublishExportJob(ctx, amqp.NewExportJobMessage(result.JobID, title, rows)); err != nil {
			return SheetsResult{}, fmt.Errorf("queue sheets export: %w", err)
		}
		return result, nil
	}

	ref, err := s.writer.WriteReport(ctx, title, rows)
	if err != nil {
		return SheetsResult{}, fmt.Errorf("write sheets report: %w", err)
	}
	result.Ref = ref
	return result, nil
}
