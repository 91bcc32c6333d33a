package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gastos/internal/amqp"
	"gastos/internal/cache"
	"gastos/internal/locale"
	"gastos/internal/report"
)

type recordingWriter struct {
	title string
	rows  [][]string
	err   error
}

func (w *recordingWriter) WriteReport(_ context.Context, title string, rows [][]string) (string, error) {
	w.title, w.rows = title, rows
	if w.err != nil {
		return "", w.err
	}
	return "'" + title + "'!A1:E3", nil
}

type recordingJobs struct {
	msgs []*amqp.ExportJobMessage
	err  error
}

func (j *recordingJobs) PublishExportJob(_ context.Context, msg *amqp.ExportJobMessage) error {
	j.msgs = append(j.msgs, msg)
	return j.err
}

func newReportService(t *testing.T, opts ...ReportOption) (*ReportService, *TransactionStore) {
	t.Helper()
	s := newTestStore(t)
	opts = append([]ReportOption{WithReportClock(func() time.Time { return fixedNow })}, opts...)
	return NewReportService(s, report.NewExporter(locale.MustNew("pt-BR", "BRL")), opts...), s
}

func TestReportExportEmptyStore(t *testing.T) {
	svc, _ := newReportService(t)

	_, err := svc.Export(context.Background(), report.FormatCSV)
	require.ErrorIs(t, err, report.ErrEmptyInput)
}

func TestReportExportRowsFollowStoreOrder(t *testing.T) {
	svc, s := newReportService(t)
	mustAdd(t, s, "primeiro", "10", "Lazer", "expense")
	mustAdd(t, s, "segundo", "20", "Freelance", "income")

	art, err := svc.Export(context.Background(), report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 3, art.Rows)
	require.Equal(t, "gastos-2025-03-07.csv", art.Filename)
	require.Equal(t,
		"Data,Descrição,Categoria,Tipo,Valor\n"+
			"07/03/2025,primeiro,Lazer,Despesa,\"R$ 10,00\"\n"+
			"07/03/2025,segundo,Freelance,Receita,\"R$ 20,00\"\n",
		string(art.Body))
}

func TestReportExportCacheKeyedByRevision(t *testing.T) {
	c := cache.NewLRUCache[report.Artifact](8, time.Hour)
	svc, s := newReportService(t, WithArtifactCache(c))
	ctx := context.Background()

	mustAdd(t, s, "a", "1", "Outros", "income")
	first, err := svc.Export(ctx, report.FormatCSV)
	require.NoError(t, err)
	again, err := svc.Export(ctx, report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.EqualValues(t, 1, c.Stats().Hits)

	mustAdd(t, s, "b", "2", "Outros", "income")
	fresh, err := svc.Export(ctx, report.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 3, fresh.Rows)
	require.Equal(t, 2, c.Size())
}

func TestSendToSheetsNotConfigured(t *testing.T) {
	svc, s := newReportService(t)
	mustAdd(t, s, "a", "1", "Outros", "income")

	require.False(t, svc.SheetsEnabled())
	_, err := svc.SendToSheets(context.Background())
	require.ErrorIs(t, err, ErrSheetsNotConfigured)
}

func TestSendToSheetsDirect(t *testing.T) {
	w := &recordingWriter{}
	svc, s := newReportService(t, WithSheetsWriter(w))
	ctx := context.Background()

	_, err := svc.SendToSheets(ctx)
	require.ErrorIs(t, err, report.ErrEmptyInput)
	require.Empty(t, w.title, "empty export must not reach the sink")

	mustAdd(t, s, "a", "1", "Outros", "income")
	res, err := svc.SendToSheets(ctx)
	require.NoError(t, err)
	require.False(t, res.Queued)
	require.Equal(t, "gastos-2025-03-07", res.Title)
	require.Equal(t, "'gastos-2025-03-07'!A1:E3", res.Ref)
	require.Len(t, w.rows, 2)
	require.Equal(t, "Receita", w.rows[1][3])

	w.err = errors.New("quota exceeded")
	_, err = svc.SendToSheets(ctx)
	require.ErrorContains(t, err, "quota exceeded")
}

func TestSendToSheetsQueued(t *testing.T) {
	jobs := &recordingJobs{}
	w := &recordingWriter{}
	svc, s := newReportService(t, WithSheetsWriter(w), WithExportJobs(jobs))
	mustAdd(t, s, "a", "1", "Outros", "income")

	res, err := svc.SendToSheets(context.Background())
	require.NoError(t, err)
	require.True(t, res.Queued)
	require.NotEmpty(t, res.JobID)
	require.Empty(t, w.title, "queued exports bypass the direct writer")

	require.Len(t, jobs.msgs, 1)
	require.Equal(t, res.JobID, jobs.msgs[0].JobID)
	require.Equal(t, "gastos-2025-03-07", jobs.msgs[0].Title)
	require.Len(t, jobs.msgs[0].Rows, 2)
}
