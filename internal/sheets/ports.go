package sheets

import "context"

// Ports for outbound adapters.
type (
	// ReportWriter stores a rendered report as a new sheet titled after it.
	ReportWriter interface {
		WriteReport(ctx context.Context, title string, rows [][]string) (ref string, err error)
	}
)
