package store

import (
	"context"

	"gastos/internal/core"
)

// Ports for transaction backends.
type (
	TransactionAppender interface {
		// Append stores tx at the end of the sequence and returns a backend reference.
		Append(ctx context.Context, tx core.Transaction) (ref string, err error)
	}

	// TransactionLister returns the stored sequence in insertion order.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Backend is everything the transaction store needs from a backend.
	Backend interface {
		TransactionAppender
		TransactionLister
	}
)
