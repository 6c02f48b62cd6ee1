package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CategoryFood      Category = "FOOD"
	CategoryTransport Category = "TRANSPORT"
	CategoryStay      Category = "STAY"
	CategoryOther     Category = "OTHER"
)

const (
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"

	// ReportingCurrency is the currency used for dashboard and report totals.
	ReportingCurrency = CurrencyBRL
)

const maxDescriptionLen = 200

type (
	Category string
	Currency string

	Expense struct {
		ID          string
		OwnerID     string
		Description string
		Amount      decimal.Decimal
		Currency    Currency
		Date        ISODate
		Category    Category
		ReceiptURL  string // optional
		CreatedAt   int64  // epoch milliseconds
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrMissingOwner       = errors.New("missing owner")
	ErrInvalidReceiptURL  = errors.New("invalid receipt url")
)

// Categories returns every category in presentation order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryTransport, CategoryStay, CategoryOther}
}

// Currencies returns every accepted currency.
func Currencies() []Currency {
	return []Currency{CurrencyBRL, CurrencyUSD, CurrencyEUR}
}

// ParseCategory accepts either the stored key (FOOD) or its label (Alimentação).
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) || s == c.Label() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryStay, CategoryOther:
		return true
	}
	return false
}

// Label is the human-readable name shown in the UI and reports.
func (c Category) Label() string {
	switch c {
	case CategoryFood:
		return "Alimentação"
	case CategoryTransport:
		return "Transporte"
	case CategoryStay:
		return "Estadia"
	case CategoryOther:
		return "Outros"
	}
	return string(c)
}

// Color is the chart color of the category.
func (c Category) Color() string {
	switch c {
	case CategoryFood:
		return "#10b981"
	case CategoryTransport:
		return "#3b82f6"
	case CategoryStay:
		return "#8b5cf6"
	case CategoryOther:
		return "#f59e0b"
	}
	return "#9ca3af"
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

func (c Currency) Valid() bool {
	switch c {
	case CurrencyBRL, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// Symbol returns the prefix used when displaying amounts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyBRL:
		return "R$"
	case CurrencyUSD:
		return "US$"
	case CurrencyEUR:
		return "€"
	}
	return string(c)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len([]rune(e.Description)) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !e.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.ReceiptURL != "" {
		u, err := url.Parse(e.ReceiptURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return ErrInvalidReceiptURL
		}
	}
	return nil
}

// HasReceipt reports whether a receipt image was attached.
func (e Expense) HasReceipt() bool {
	return e.ReceiptURL != ""
}
