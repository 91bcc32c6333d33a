package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	s := New()
	items, err := s.ListTransactions(context.Background())
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty store: items=%v err=%v", items, err)
	}

	ref, err := s.Append(context.Background(), core.Transaction{
		ID:          "a",
		Description: "t",
		Amount:      decimal.NewFromInt(1),
		Category:    "Lazer",
		Type:        core.Expense,
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = s.Append(context.Background(), core.Transaction{ID: "b"})
	if ref != "mem:2" {
		t.Fatalf("unexpected second ref %q", ref)
	}

	items, _ = s.ListTransactions(context.Background())
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestMemoryStoreListIsSnapshot(t *testing.T) {
	s := New()
	_, _ = s.Append(context.Background(), core.Transaction{ID: "a", Description: "orig"})

	items, _ := s.ListTransactions(context.Background())
	items[0].Description = "changed"

	again, _ := s.ListTransactions(context.Background())
	if again[0].Description != "orig" {
		t.Fatalf("store mutated through snapshot")
	}
}
