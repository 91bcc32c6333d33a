package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Routing keys on the exchange
const (
	RoutingTransactionAdded = "transaction.added"
	RoutingReportExport     = "report.export"
)

// TransactionAddedMessage announces a stored transaction. Amount is the
// decimal string, never a float.
type TransactionAddedMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportJobMessage asks the worker to write a report to Google Sheets.
// The rows travel with the job because the worker has no access to the
// web process's session data.
type ExportJobMessage struct {
	JobID     string     `json:"job_id"`
	Title     string     `json:"title"`
	Rows      [][]string `json:"rows"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewTransactionAddedMessage(id, kind, category, amount, date string) *TransactionAddedMessage {
	return &TransactionAddedMessage{
		ID:        id,
		Type:      kind,
		Category:  category,
		Amount:    amount,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func NewExportJobMessage(jobID, title string, rows [][]string) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:     jobID,
		Title:     title,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobMessageFromJSON decodes and checks a job. A job without rows
// cannot be processed and is reported as an error.
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.JobID == "" {
		return nil, errors.New("export job without job_id")
	}
	if len(msg.Rows) == 0 {
		return nil, errors.New("export job without rows")
	}
	return &msg, nil
}
