package http

import (
	"errors"
	"html/template"
	"net/http"

	applog "gastos/internal/log"
	"gastos/internal/report"
	"gastos/internal/services"
)

// handleExport downloads the whole sequence as CSV or XLSX. An empty store
// yields 422 with an error notification and no body.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgs := s.store.Formatter().Messages()

	format, err := ParseFormatParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	art, err := s.reports.Export(ctx, format)
	switch {
	case errors.Is(err, report.ErrEmptyInput):
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(msgs.EmptyExport).
			Write(w)
		return
	case err != nil:
		s.logError(ctx, "Failed to export report", err, applog.ComponentReport, applog.OpExport)
		InternalServerError("Failed to export report").Write(w)
		return
	}

	s.appMetrics.totalExports.Add(1)
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogReportExported(ctx, string(format), art.Filename, art.Rows, len(art.Body))

	NewHTMXResponse().
		Attachment(art.Filename, art.ContentType, art.Body).
		TriggerSuccessNotification(msgs.Exported).
		Write(w)
}

type sheetsJSON struct {
	Title  string `json:"title"`
	Ref    string `json:"ref,omitempty"`
	JobID  string `json:"job_id,omitempty"`
	Queued bool   `json:"queued"`
	Rows   int    `json:"rows"`
}

// handleSendToSheets writes the report to Google Sheets, directly or
// through the export worker.
func (s *Server) handleSendToSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msgs := s.store.Formatter().Messages()

	res, err := s.reports.SendToSheets(ctx)
	switch {
	case errors.Is(err, services.ErrSheetsNotConfigured):
		ServiceUnavailableError(msgs.SheetsMissing).Write(w)
		return
	case errors.Is(err, report.ErrEmptyInput):
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(msgs.EmptyExport).
			Write(w)
		return
	case err != nil:
		s.logError(ctx, "Failed to send report to Google Sheets", err, applog.ComponentSheets, applog.OpExport)
		ErrorResponse(http.StatusBadGateway, "Google Sheets export failed").Write(w)
		return
	}

	s.appMetrics.sheetsExports.Add(1)
	applog.FromContext(ctx).InfoContext(ctx, "Report sent to Google Sheets",
		applog.FieldFilename, res.Title,
		applog.FieldRows, res.Rows,
		applog.FieldSheetsRef, res.Ref,
		"job_id", res.JobID,
		"queued", res.Queued)

	if wantsJSON(r) {
		status := http.StatusOK
		if res.Queued {
			status = http.StatusAccepted
		}
		writeJSON(w, status, sheetsJSON{Title: res.Title, Ref: res.Ref, JobID: res.JobID, Queued: res.Queued, Rows: res.Rows})
		return
	}

	resp := NewHTMXResponse()
	if res.Queued {
		resp.TriggerNotification(NotificationInfo, msgs.SentToSheets, 3000)
	} else {
		resp.TriggerSuccessNotification(msgs.SentToSheets)
	}
	resp.BodyHTML(`<div class="success">` + template.HTMLEscapeString(msgs.SentToSheets) + `</div>`).Write(w)
}
