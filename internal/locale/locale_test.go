package locale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

func TestNewMatchesSupportedLocales(t *testing.T) {
	cases := []struct {
		tag, currency string
		wantTag       string
		ok            bool
	}{
		{"pt-BR", "BRL", "pt-BR", true},
		{"pt", "BRL", "pt-BR", true},
		{"en-US", "USD", "en-US", true},
		{"it-IT", "EUR", "it", true},
		{"xx-!!", "BRL", "", false},
		{"pt-BR", "REAL", "", false},
	}
	for _, tc := range cases {
		f, err := New(tc.tag, tc.currency)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s/%s: unexpected error %v", tc.tag, tc.currency, err)
			}
			if f.Tag() != tc.wantTag {
				t.Fatalf("%s: expected tag %s, got %s", tc.tag, tc.wantTag, f.Tag())
			}
		} else if err == nil {
			t.Fatalf("%s/%s: expected error", tc.tag, tc.currency)
		}
	}
}

func TestCurrency(t *testing.T) {
	br := MustNew("pt-BR", "BRL")
	us := MustNew("en-US", "USD")
	it := MustNew("it-IT", "EUR")
	gb := MustNew("en-US", "GBP")

	cases := []struct {
		f    *Formatter
		in   string
		want string
	}{
		{br, "5000", "R$ 5.000,00"},
		{br, "350.5", "R$ 350,50"},
		{br, "4649.5", "R$ 4.649,50"},
		{br, "0", "R$ 0,00"},
		{br, "-12.3", "-R$ 12,30"},
		{br, "1234567.891", "R$ 1.234.567,89"},
		{us, "5000", "$5,000.00"},
		{us, "-0.5", "-$0.50"},
		{it, "1000", "1.000,00 €"},
		{gb, "12", "£12.00"},
	}
	for _, tc := range cases {
		got := tc.f.Currency(decimal.RequireFromString(tc.in))
		if got != tc.want {
			t.Fatalf("%s %s: expected %q, got %q", tc.f.Tag(), tc.in, tc.want, got)
		}
	}
}

func TestDateAndLabels(t *testing.T) {
	br := MustNew("pt-BR", "BRL")
	us := MustNew("en-US", "USD")
	d := time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC)

	if got := br.Date(d); got != "07/03/2025" {
		t.Fatalf("pt-BR date: %s", got)
	}
	if got := us.Date(d); got != "03/07/2025" {
		t.Fatalf("en-US date: %s", got)
	}
	if br.TypeLabel(core.Income) != "Receita" || br.TypeLabel(core.Expense) != "Despesa" {
		t.Fatalf("unexpected pt-BR labels")
	}
	if us.TypeLabel(core.Income) != "Income" {
		t.Fatalf("unexpected en-US label")
	}
}

func TestHeaderIsACopy(t *testing.T) {
	br := MustNew("pt-BR", "BRL")
	h := br.Header()
	if len(h) != 5 || h[0] != "Data" || h[4] != "Valor" {
		t.Fatalf("unexpected header: %v", h)
	}
	h[0] = "x"
	if br.Header()[0] != "Data" {
		t.Fatalf("header mutated through returned slice")
	}
}
