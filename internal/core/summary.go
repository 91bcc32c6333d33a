package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the aggregated view of a transaction sequence.
type Summary struct {
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Balance   decimal.Decimal
	Count     int
	ByIncome  []CategoryAmount
	ByExpense []CategoryAmount
}

// TotalByType sums the amounts of the transactions of type t.
func TotalByType(txs []Transaction, t Type) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Summarize computes totals, balance and per-category sums.
// Categories keep the order of their first appearance.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		Income:  TotalByType(txs, Income),
		Expense: TotalByType(txs, Expense),
		Count:   len(txs),
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.ByIncome = byCategory(txs, Income)
	s.ByExpense = byCategory(txs, Expense)
	return s
}

func byCategory(txs []Transaction, t Type) []CategoryAmount {
	var out []CategoryAmount
	index := map[string]int{}
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryAmount{Name: tx.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}
