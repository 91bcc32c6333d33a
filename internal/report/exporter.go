// Package report renders the transaction sequence as a spreadsheet artifact.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gastos/internal/core"
	"gastos/internal/locale"
)

// Format selects the artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	filenamePrefix = "gastos"
	sheetName      = "Gastos"
)

// Reason classifies an ExportError.
type Reason string

const (
	ReasonEmptyInput    Reason = "empty_input"
	ReasonUnknownFormat Reason = "unknown_format"
	ReasonEncode        Reason = "encode"
)

var (
	ErrEmptyInput    = errors.New("no transactions to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// ExportError is returned by Export. Empty input wraps ErrEmptyInput.
type ExportError struct {
	Reason Reason
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Artifact is a rendered report ready to be handed to a sink.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int // including the header
}

// ParseFormat accepts "csv" and "xlsx"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", &ExportError{Reason: ReasonUnknownFormat, Format: f, Err: ErrUnknownFormat}
	}
}

// Title is the artifact name without extension, e.g. "gastos-2025-03-07".
// The date is taken in UTC.
func Title(now time.Time) string {
	return filenamePrefix + "-" + now.UTC().Format("2006-01-02")
}

// Filename is Title plus the format extension.
func Filename(now time.Time, f Format) string {
	return Title(now) + "." + string(f)
}

type Exporter struct {
	formatter *locale.Formatter
}

func NewExporter(formatter *locale.Formatter) *Exporter {
	return &Exporter{formatter: formatter}
}

// Rows returns the localized header followed by one row per transaction,
// in the given order.
func (e *Exporter) Rows(txs []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, e.formatter.Header())
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Date,
			tx.Description,
			tx.Category,
			e.formatter.TypeLabel(tx.Type),
			e.formatter.Currency(tx.Amount),
		})
	}
	return rows
}

// Export renders txs in format f. An empty sequence fails with
// ErrEmptyInput and produces nothing.
func (e *Exporter) Export(txs []core.Transaction, f Format, now time.Time) (Artifact, error) {
	if len(txs) == 0 {
		return Artifact{}, &ExportError{Reason: ReasonEmptyInput, Format: f, Err: ErrEmptyInput}
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch f {
	case FormatCSV:
		body, err = encodeCSV(e.Rows(txs))
		contentType = contentTypeCSV
	case FormatXLSX:
		body, err = e.encodeXLSX(txs)
		contentType = contentTypeXLSX
	default:
		return Artifact{}, &ExportError{Reason: ReasonUnknownFormat, Format: f, Err: ErrUnknownFormat}
	}
	if err != nil {
		return Artifact{}, &ExportError{Reason: ReasonEncode, Format: f, Err: err}
	}

	return Artifact{
		Filename:    Filename(now, f),
		ContentType: contentType,
		Body:        body,
		Rows:        len(txs) + 1,
	}, nil
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeXLSX writes the same columns as the CSV, but the amount is a
// number cell with a thousands format so it stays summable.
func (e *Exporter) encodeXLSX(txs []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := e.formatter.Header()
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	for i, tx := range txs {
		row := i + 2
		values := []interface{}{tx.Date, tx.Description, tx.Category, e.formatter.TypeLabel(tx.Type)}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		amountCell, _ := excelize.CoordinatesToCellName(5, row)
		// The decimal text goes into the numeric cell as is, so no float
		// rounding happens on our side.
		if err := f.SetCellDefault(sheetName, amountCell, tx.Amount.StringFixed(2)); err != nil {
			return nil, fmt.Errorf("write amount %d: %w", row, err)
		}
		if err := f.SetCellStyle(sheetName, amountCell, amountCell, amountStyle); err != nil {
			return nil, fmt.Errorf("style amount %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
