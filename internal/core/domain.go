package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type classifies a transaction and constrains its category set.
	Type string

	Transaction struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Category    string
		Type        Type
		CreatedAt   time.Time
		Date        string // display date, formatted once at creation
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrCategoryNotAllowed = errors.New("category not allowed for type")
)

// categories maps each type to its allowed categories, in display order.
var categories = map[Type][]string{
	Income:  {"Salário", "Freelance", "Investimentos", "Outros"},
	Expense: {"Alimentação", "Transporte", "Moradia", "Saúde", "Lazer", "Educação", "Outros"},
}

// Types returns the known transaction types in display order.
func Types() []Type {
	return []Type{Income, Expense}
}

// ParseType converts form text into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known variants.
func (t Type) IsValid() bool {
	_, ok := categories[t]
	return ok
}

// CategoriesFor returns a copy of the categories allowed for t.
// Unknown types yield nil.
func CategoriesFor(t Type) []string {
	cats, ok := categories[t]
	if !ok {
		return nil
	}
	return append([]string(nil), cats...)
}

// IsValidCategory reports whether category belongs to the set of t.
func IsValidCategory(t Type, category string) bool {
	for _, c := range categories[t] {
		if c == category {
			return true
		}
	}
	return false
}

// Signed returns the amount with the sign it contributes to the balance.
func (tx Transaction) Signed() decimal.Decimal {
	if tx.Type == Expense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}
