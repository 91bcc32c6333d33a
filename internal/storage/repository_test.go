package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gastos/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTx(i int, kind core.Type) core.Transaction {
	return core.Transaction{
		ID:          fmt.Sprintf("id-%d", i),
		Description: fmt.Sprintf("item %d", i),
		Amount:      decimal.RequireFromString("1234.56"),
		Category:    "Outros",
		Type:        kind,
		CreatedAt:   time.Date(2025, 3, 7, 10, i, 0, 0, time.UTC),
		Date:        "07/03/2025",
	}
}

func TestIsMemoryDSN(t *testing.T) {
	require.True(t, IsMemoryDSN(":memory:"))
	require.True(t, IsMemoryDSN(DefaultDSN))
	require.False(t, IsMemoryDSN("./data/gastos.db"))
	require.False(t, IsMemoryDSN("file:gastos.db"))
}

func TestNewSQLiteRepositoryRejectsFiles(t *testing.T) {
	_, err := NewSQLiteRepository("./gastos.db")
	require.ErrorContains(t, err, "not an in-memory database")
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 1; i <= 3; i++ {
		kind := core.Income
		if i%2 == 0 {
			kind = core.Expense
		}
		ref, err := repo.Append(ctx, sampleTx(i, kind))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("sqlite:%d", i), ref)
	}

	got, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, tx := range got {
		want := sampleTx(i+1, tx.Type)
		require.Equal(t, want.ID, tx.ID, "insertion order")
		require.Equal(t, want.Description, tx.Description)
		require.True(t, want.Amount.Equal(tx.Amount))
		require.True(t, want.CreatedAt.Equal(tx.CreatedAt))
		require.Equal(t, want.Date, tx.Date)
	}
	require.Equal(t, core.Expense, got[1].Type)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestAmountsKeepPrecision(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	tx := sampleTx(1, core.Expense)
	tx.Amount = decimal.RequireFromString("0.1")
	_, err := repo.Append(ctx, tx)
	require.NoError(t, err)
	tx2 := sampleTx(2, core.Expense)
	tx2.Amount = decimal.RequireFromString("0.2")
	_, err = repo.Append(ctx, tx2)
	require.NoError(t, err)

	got, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Equal(t, "0.3", got[0].Amount.Add(got[1].Amount).String())
}

func TestDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Append(ctx, sampleTx(1, core.Income))
	require.NoError(t, err)
	_, err = repo.Append(ctx, sampleTx(1, core.Income))
	require.Error(t, err)
}

func TestSchemaRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Append(ctx, sampleTx(1, core.Type("transfer")))
	require.Error(t, err)
}

func TestEmptyList(t *testing.T) {
	got, err := newTestRepo(t).ListTransactions(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
