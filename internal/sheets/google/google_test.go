package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestUniqueTitle(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		want     string
	}{
		{"free", "gastos-2025-03-07", []string{"Sheet1"}, "gastos-2025-03-07"},
		{"taken once", "gastos-2025-03-07", []string{"gastos-2025-03-07"}, "gastos-2025-03-07 (2)"},
		{"taken twice", "gastos-2025-03-07", []string{"gastos-2025-03-07", "gastos-2025-03-07 (2)"}, "gastos-2025-03-07 (3)"},
		{"case insensitive", "gastos", []string{"GASTOS"}, "gastos (2)"},
		{"gap is reused", "g", []string{"g", "g (3)"}, "g (2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueTitle(tt.base, tt.existing); got != tt.want {
				t.Errorf("uniqueTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("gastos-2025-03-07"); got != "'gastos-2025-03-07'" {
		t.Errorf("unexpected quoting: %s", got)
	}
	if got := quoteSheet("João's"); got != "'João''s'" {
		t.Errorf("unexpected quoting: %s", got)
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{ServiceAccountJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sid"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadCredentials(Options{ServiceAccountFile: path})
	if err != nil || !strings.Contains(string(got), "service_account") {
		t.Fatalf("file credentials: %q, %v", got, err)
	}

	got, err = loadCredentials(Options{ServiceAccountJSON: ` {"inline":true} `, ServiceAccountFile: path})
	if err != nil || string(got) != `{"inline":true}` {
		t.Fatalf("inline credentials should win: %q, %v", got, err)
	}

	if _, err := loadCredentials(Options{ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// fakeSheets records the calls a WriteReport makes against the Sheets API.
type fakeSheets struct {
	mu       sync.Mutex
	titles   []string
	added    []string
	deleted  []int64
	written  [][]any
	rng      string
	valueOpt string
	failPut  bool
	nextID   int64
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sid"):
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid", "sheets": sheets})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if del := req.Requests[0].DeleteSheet; del != nil {
			f.deleted = append(f.deleted, del.SheetId)
			f.titles = f.titles[:len(f.titles)-1]
			json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})
			return
		}
		title := req.Requests[0].AddSheet.Properties.Title
		f.nextID++
		f.added = append(f.added, title)
		f.titles = append(f.titles, title)
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sid",
			"replies": []map[string]any{{
				"addSheet": map[string]any{"properties": map[string]any{"sheetId": 100 + f.nextID, "title": title}},
			}},
		})

	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		if f.failPut {
			http.Error(w, `{"error":{"code":400,"message":"bad range"}}`, http.StatusBadRequest)
			return
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.written = vr.Values
		f.rng = r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		f.valueOpt = r.URL.Query().Get("valueInputOption")
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sid",
			"updatedRange":  f.rng + ":E" + "3",
		})

	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return NewWithService(svc, "sid")
}

func TestWriteReport(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1", "gastos-2025-03-07"}}
	c := newFakeClient(t, fake)

	rows := [][]string{
		{"Data", "Descrição", "Categoria", "Tipo", "Valor"},
		{"07/03/2025", "Mercado", "Alimentação", "Despesa", "R$ 350,50"},
	}
	ref, err := c.WriteReport(context.Background(), "gastos-2025-03-07", rows)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	if len(fake.added) != 1 || fake.added[0] != "gastos-2025-03-07 (2)" {
		t.Fatalf("expected suffixed sheet, got %v", fake.added)
	}
	if fake.rng != "'gastos-2025-03-07 (2)'!A1" {
		t.Errorf("unexpected range %q", fake.rng)
	}
	if fake.valueOpt != "RAW" {
		t.Errorf("unexpected valueInputOption %q", fake.valueOpt)
	}
	if len(fake.written) != 2 || fake.written[1][4] != "R$ 350,50" {
		t.Errorf("unexpected values %v", fake.written)
	}
	if !strings.HasPrefix(ref, "'gastos-2025-03-07 (2)'!A1") {
		t.Errorf("unexpected ref %q", ref)
	}
}

func TestWriteReport_FailedWriteRemovesSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}, failPut: true}
	c := newFakeClient(t, fake)
	rows := [][]string{{"Data"}, {"=1+1"}}

	for attempt := 0; attempt < 2; attempt++ {
		if _, err := c.WriteReport(context.Background(), "gastos-2025-03-07", rows); err == nil {
			t.Fatal("expected write error")
		}
	}

	if len(fake.deleted) != 2 || fake.deleted[0] != 101 || fake.deleted[1] != 102 {
		t.Fatalf("expected both added sheets to be removed, got %v", fake.deleted)
	}
	// A retry reuses the title instead of stacking suffixed tabs
	if len(fake.added) != 2 || fake.added[1] != "gastos-2025-03-07" {
		t.Errorf("unexpected added sheets %v", fake.added)
	}
	if len(fake.titles) != 1 {
		t.Errorf("leftover sheets: %v", fake.titles)
	}
}

func TestWriteReport_NoRows(t *testing.T) {
	c := newFakeClient(t, &fakeSheets{})
	if _, err := c.WriteReport(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error for empty rows")
	}
}

func TestWriteReport_NotInitialized(t *testing.T) {
	c := &Client{}
	if _, err := c.WriteReport(context.Background(), "x", [][]string{{"a"}}); err == nil {
		t.Fatal("expected error for nil service")
	}
}
