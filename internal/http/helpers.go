package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/locale"
)

// transactionView is a transaction as shown in the history list.
type transactionView struct {
	ID          string
	Description string
	Category    string
	Date        string
	TypeLabel   string
	Amount      string // signed, e.g. "+R$ 5.000,00"
	Class       string // income or expense
}

func newTransactionView(f *locale.Formatter, tx core.Transaction) transactionView {
	amount := f.Currency(tx.Signed())
	if tx.Type == core.Income {
		amount = "+" + amount
	}
	return transactionView{
		ID:          tx.ID,
		Description: tx.Description,
		Category:    tx.Category,
		Date:        tx.Date,
		TypeLabel:   f.TypeLabel(tx.Type),
		Amount:      amount,
		Class:       tx.Type.String(),
	}
}

// newHistoryView lists transactions newest first, as the history panel shows them.
func newHistoryView(f *locale.Formatter, txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		out = append(out, newTransactionView(f, txs[i]))
	}
	return out
}

type categoryView struct {
	Name   string
	Amount string
	Width  int // bar width in percent of the largest category
}

type summaryView struct {
	Income       string
	Expense      string
	Balance      string
	BalanceClass string
	Count        int
	ByIncome     []categoryView
	ByExpense    []categoryView
}

func newSummaryView(f *locale.Formatter, s core.Summary) summaryView {
	class := "income"
	if s.Balance.IsNegative() {
		class = "expense"
	}
	return summaryView{
		Income:       f.Currency(s.Income),
		Expense:      f.Currency(s.Expense),
		Balance:      f.Currency(s.Balance),
		BalanceClass: class,
		Count:        s.Count,
		ByIncome:     categoryBars(f, s.ByIncome),
		ByExpense:    categoryBars(f, s.ByExpense),
	}
}

// categoryBars scales every category against the largest one.
func categoryBars(f *locale.Formatter, rows []core.CategoryAmount) []categoryView {
	largest := decimal.Zero
	for _, r := range rows {
		if r.Amount.GreaterThan(largest) {
			largest = r.Amount
		}
	}

	out := make([]categoryView, 0, len(rows))
	for _, r := range rows {
		width := 0
		if largest.IsPositive() && r.Amount.IsPositive() {
			width = int(r.Amount.Mul(decimal.NewFromInt(100)).Div(largest).Round(0).IntPart())
			if width < 2 { // keep tiny values visible
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		out = append(out, categoryView{Name: r.Name, Amount: f.Currency(r.Amount), Width: width})
	}
	return out
}

type typeOption struct {
	Value string
	Label string
}

func typeOptions(f *locale.Formatter) []typeOption {
	types := core.Types()
	out := make([]typeOption, 0, len(types))
	for _, t := range types {
		out = append(out, typeOption{Value: t.String(), Label: f.TypeLabel(t)})
	}
	return out
}

// transactionJSON is the API representation of a transaction. Amounts are
// decimal strings so no precision is lost.
type transactionJSON struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Category:    tx.Category,
		Type:        tx.Type.String(),
		Date:        tx.Date,
		CreatedAt:   tx.CreatedAt.UTC(),
	}
}

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type summaryJSON struct {
	Income    string         `json:"income"`
	Expense   string         `json:"expense"`
	Balance   string         `json:"balance"`
	Count     int            `json:"count"`
	Currency  string         `json:"currency"`
	ByIncome  []categoryJSON `json:"by_income"`
	ByExpense []categoryJSON `json:"by_expense"`
}

func newSummaryJSON(currency string, s core.Summary) summaryJSON {
	conv := func(rows []core.CategoryAmount) []categoryJSON {
		out := make([]categoryJSON, 0, len(rows))
		for _, r := range rows {
			out = append(out, categoryJSON{Category: r.Name, Amount: r.Amount.StringFixed(2)})
		}
		return out
	}
	return summaryJSON{
		Income:    s.Income.StringFixed(2),
		Expense:   s.Expense.StringFixed(2),
		Balance:   s.Balance.StringFixed(2),
		Count:     s.Count,
		Currency:  currency,
		ByIncome:  conv(s.ByIncome),
		ByExpense: conv(s.ByExpense),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
