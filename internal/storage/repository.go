package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/store"

	_ "modernc.org/sqlite"
)

// DefaultDSN is a named in-memory database shared by the pool's connections.
const DefaultDSN = "file:gastos?mode=memory&cache=shared"

var _ store.Backend = (*SQLiteRepository)(nil)

// SQLiteRepository keeps the session's transactions in an in-memory SQLite
// database. Everything is gone once Close returns.
type SQLiteRepository struct {
	db *sql.DB
}

// IsMemoryDSN reports whether dsn points at an in-memory database.
func IsMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if !IsMemoryDSN(dsn) {
		return nil, fmt.Errorf("sqlite dsn %q is not an in-memory database", dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps one database alive for the whole session,
	// including plain ":memory:" which is per connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const insertTransaction = `INSERT INTO transactions (id, description, amount, category, type, created_at, display_date)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// Append implements store.TransactionAppender
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (string, error) {
	res, err := r.db.ExecContext(ctx, insertTransaction,
		tx.ID,
		tx.Description,
		tx.Amount.String(),
		tx.Category,
		string(tx.Type),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		tx.Date,
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read inserted row id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"seq", seq,
		"id", tx.ID,
		"type", tx.Type)

	return "sqlite:" + strconv.FormatInt(seq, 10), nil
}

const listTransactions = `SELECT id, description, amount, category, type, created_at, display_date
FROM transactions ORDER BY seq`

// ListTransactions implements store.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx                      core.Transaction
			amount, kind, createdAt string
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &amount, &tx.Category, &kind, &createdAt, &tx.Date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount of %s: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", tx.ID, err)
		}
		tx.Type = core.Type(kind)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Count returns the number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
