// Package locale renders amounts, dates and labels for a configured locale
// and currency. The domain never formats anything itself; it receives a
// Formatter.
package locale

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gastos/internal/core"
)

// Messages are the user-facing notifications for each outcome.
type Messages struct {
	Added         string
	Invalid       string
	Exported      string
	EmptyExport   string
	SentToSheets  string
	SheetsMissing string
}

// Conventions describes how a locale writes numbers, dates and labels.
type Conventions struct {
	Tag          language.Tag
	DecimalSep   string
	GroupSep     string
	SymbolAfter  bool
	DateLayout   string
	IncomeLabel  string
	ExpenseLabel string
	Header       [5]string // Date, Description, Category, Type, Amount
	Messages     Messages
}

var supported = []Conventions{
	{
		Tag:          language.BrazilianPortuguese,
		DecimalSep:   ",",
		GroupSep:     ".",
		DateLayout:   "02/01/2006",
		IncomeLabel:  "Receita",
		ExpenseLabel: "Despesa",
		Header:       [5]string{"Data", "Descrição", "Categoria", "Tipo", "Valor"},
		Messages: Messages{
			Added:         "Transação adicionada com sucesso!",
			Invalid:       "Preencha todos os campos!",
			Exported:      "Planilha baixada com sucesso!",
			EmptyExport:   "Adicione algumas transações primeiro!",
			SentToSheets:  "Planilha enviada para o Google Sheets!",
			SheetsMissing: "Google Sheets não está configurado",
		},
	},
	{
		Tag:          language.AmericanEnglish,
		DecimalSep:   ".",
		GroupSep:     ",",
		DateLayout:   "01/02/2006",
		IncomeLabel:  "Income",
		ExpenseLabel: "Expense",
		Header:       [5]string{"Date", "Description", "Category", "Type", "Amount"},
		Messages: Messages{
			Added:         "Transaction added!",
			Invalid:       "Please fill in every field!",
			Exported:      "Spreadsheet downloaded!",
			EmptyExport:   "Add some transactions first!",
			SentToSheets:  "Spreadsheet sent to Google Sheets!",
			SheetsMissing: "Google Sheets is not configured",
		},
	},
	{
		Tag:          language.Italian,
		DecimalSep:   ",",
		GroupSep:     ".",
		SymbolAfter:  true,
		DateLayout:   "02/01/2006",
		IncomeLabel:  "Entrata",
		ExpenseLabel: "Uscita",
		Header:       [5]string{"Data", "Descrizione", "Categoria", "Tipo", "Importo"},
		Messages: Messages{
			Added:         "Transazione registrata!",
			Invalid:       "Compila tutti i campi!",
			Exported:      "Foglio scaricato!",
			EmptyExport:   "Aggiungi prima qualche transazione!",
			SentToSheets:  "Foglio inviato a Google Sheets!",
			SheetsMissing: "Google Sheets non configurato",
		},
	},
}

var matcher = language.NewMatcher(tags())

func tags() []language.Tag {
	out := make([]language.Tag, len(supported))
	for i, c := range supported {
		out[i] = c.Tag
	}
	return out
}

// Formatter is the formatting strategy for one locale and currency.
type Formatter struct {
	conv     Conventions
	currency string
	symbol   string
}

// New returns a Formatter for the given BCP 47 tag and ISO 4217 code.
func New(tag, currencyCode string) (*Formatter, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", tag, err)
	}
	_, idx, confidence := matcher.Match(t)
	if confidence == language.No {
		return nil, fmt.Errorf("unsupported locale %q", tag)
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	conv := supported[idx]
	// CLDR narrow symbol for the locale, e.g. "R$", "$", "€". Units without
	// one render as their ISO code.
	symbol := message.NewPrinter(conv.Tag).Sprint(currency.NarrowSymbol(unit))

	return &Formatter{conv: conv, currency: unit.String(), symbol: symbol}, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(tag, currencyCode string) *Formatter {
	f, err := New(tag, currencyCode)
	if err != nil {
		panic(err)
	}
	return f
}

// Tag returns the matched locale tag.
func (f *Formatter) Tag() string {
	return f.conv.Tag.String()
}

// CurrencyCode returns the ISO 4217 code.
func (f *Formatter) CurrencyCode() string {
	return f.currency
}

// Currency renders an amount, e.g. "R$ 5.000,00" or "5.000,00 €".
func (f *Formatter) Currency(d decimal.Decimal) string {
	neg := d.IsNegative()
	num := f.Number(d.Abs())
	var s string
	if f.conv.SymbolAfter {
		s = num + " " + f.symbol
	} else if utf8.RuneCountInString(f.symbol) == 1 {
		s = f.symbol + num
	} else {
		s = f.symbol + " " + num
	}
	if neg {
		return "-" + s
	}
	return s
}

// Number renders d with two decimals and locale separators. Grouping works
// on the decimal string so large amounts never pass through a float.
func (f *Formatter) Number(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.conv.GroupSep)
		}
		b.WriteRune(r)
	}
	return sign + b.String() + f.conv.DecimalSep + frac
}

// Date renders the display date of a transaction.
func (f *Formatter) Date(t time.Time) string {
	return t.Format(f.conv.DateLayout)
}

// TypeLabel returns the localized label of a transaction type.
func (f *Formatter) TypeLabel(t core.Type) string {
	if t == core.Income {
		return f.conv.IncomeLabel
	}
	return f.conv.ExpenseLabel
}

// Header returns the report header row.
func (f *Formatter) Header() []string {
	h := f.conv.Header
	return h[:]
}

// Messages returns the notification texts.
func (f *Formatter) Messages() Messages {
	return f.conv.Messages
}
