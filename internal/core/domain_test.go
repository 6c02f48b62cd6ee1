package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func validExpense() Expense {
	return Expense{
		OwnerID:     "u1",
		Description: "Almoço",
		Amount:      decimal.RequireFromString("25.90"),
		Currency:    CurrencyBRL,
		Date:        "2024-03-10",
		Category:    CategoryFood,
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := validExpense()
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"no owner", func(e *Expense) { e.OwnerID = " " }, ErrMissingOwner},
		{"blank description", func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{"negative amount", func(e *Expense) { e.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad currency", func(e *Expense) { e.Currency = "GBP" }, ErrInvalidCurrency},
		{"bad category", func(e *Expense) { e.Category = "FUN" }, ErrInvalidCategory},
		{"bad date", func(e *Expense) { e.Date = "2024-13-01" }, ErrInvalidMonth},
		{"relative receipt", func(e *Expense) { e.ReceiptURL = "/r/1.jpg" }, ErrInvalidReceiptURL},
		{"ftp receipt", func(e *Expense) { e.ReceiptURL = "ftp://host/r.jpg" }, ErrInvalidReceiptURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExpense()
			tc.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestExpenseValidateDescriptionLength(t *testing.T) {
	e := validExpense()
	long := make([]rune, 201)
	for i := range long {
		long[i] = 'ç'
	}
	e.Description = string(long)
	if err := e.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("want ErrDescriptionTooLong, got %v", err)
	}
	e.Description = string(long[:200])
	if err := e.Validate(); err != nil {
		t.Fatalf("200 runes should pass, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"FOOD":        CategoryFood,
		"transport":   CategoryTransport,
		"Estadia":     CategoryStay,
		"Alimentação": CategoryFood,
		" OTHER ":     CategoryOther,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		if err != nil || got != want {
			t.Fatalf("ParseCategory(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseCategory("Lazer"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCategoryColorsAreDistinct(t *testing.T) {
	seen := map[string]Category{}
	for _, c := range Categories() {
		col := c.Color()
		if prev, ok := seen[col]; ok {
			t.Fatalf("%s and %s share color %s", prev, c, col)
		}
		seen[col] = c
	}
}

func TestParseCurrency(t *testing.T) {
	for _, in := range []string{"BRL", "usd", " eur "} {
		if _, err := ParseCurrency(in); err != nil {
			t.Fatalf("ParseCurrency(%q): %v", in, err)
		}
	}
	if _, err := ParseCurrency("JPY"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
