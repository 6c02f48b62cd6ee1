// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the date range of the dashboard and exports, the credential forms and the
// expense form.

package http

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"nomadledger/internal/core"
)

var errInvalidRange = errors.New("período inválido")

// ParseBounds reads the optional start and end query parameters (YYYY-MM-DD).
func ParseBounds(q url.Values) (core.DateBounds, error) {
	b, err := core.NewDateBounds(strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end")))
	if err != nil {
		return core.DateBounds{}, errInvalidRange
	}
	return b, nil
}

// boundsQuery encodes b back into start/end parameters.
func boundsQuery(b core.DateBounds) string {
	v := url.Values{}
	if !b.Start.IsZero() {
		v.Set("start", b.Start.String())
	}
	if !b.End.IsZero() {
		v.Set("end", b.End.String())
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type credentialsForm struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=72"`
}

type signUpForm struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"`
}

// ExpenseForm holds the raw expense form values so they can be echoed back
// when the form is re-rendered.
type ExpenseForm struct {
	Description string `validate:"required,max=200"`
	Amount      string `validate:"required,max=32"`
	Currency    string `validate:"required,oneof=BRL USD EUR"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Category    string `validate:"required,oneof=FOOD TRANSPORT STAY OTHER"`
	SkipReceipt bool
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func parseCredentials(form url.Values) credentialsForm {
	return credentialsForm{
		Email:    strings.TrimSpace(sanitizeInput(form.Get("email"))),
		Password: form.Get("password"),
	}
}

// ParseExpenseForm extracts the expense fields; unknown values are kept
// verbatim for validation to report.
func ParseExpenseForm(form url.Values) ExpenseForm {
	return ExpenseForm{
		Description: sanitizeInput(form.Get("description")),
		Amount:      strings.TrimSpace(form.Get("amount")),
		Currency:    strings.ToUpper(strings.TrimSpace(form.Get("currency"))),
		Date:        strings.TrimSpace(form.Get("date")),
		Category:    strings.ToUpper(strings.TrimSpace(form.Get("category"))),
		SkipReceipt: form.Get("skip_receipt") == "1",
	}
}

// ToExpense validates f and converts it for ownerID. The returned message is
// the first problem in user-facing wording.
func (f ExpenseForm) ToExpense(v *validator.Validate, ownerID string) (core.Expense, string) {
	if err := v.Struct(f); err != nil {
		return core.Expense{}, validationMessage(err)
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Expense{}, messageFor(err)
	}
	date, err := core.ParseISODate(f.Date)
	if err != nil {
		return core.Expense{}, messageFor(err)
	}
	e := core.Expense{
		OwnerID:     ownerID,
		Description: f.Description,
		Amount:      amount,
		Currency:    core.Currency(f.Currency),
		Date:        date,
		Category:    core.Category(f.Category),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, messageFor(err)
	}
	return e, ""
}

type fieldLabel struct {
	name     string
	feminine bool
}

var fieldLabels = map[string]fieldLabel{
	"Email":       {"E-mail", false},
	"Password":    {"Senha", true},
	"Description": {"Descrição", true},
	"Amount":      {"Valor", false},
	"Currency":    {"Moeda", true},
	"Date":        {"Data", true},
	"Category":    {"Categoria", true},
}

// agree picks the masculine or feminine form of an adjective.
func (l fieldLabel) agree(masc, fem string) string {
	if l.feminine {
		return fem
	}
	return masc
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Dados inválidos."
	}
	fe := verrs[0]
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		return "Dados inválidos."
	}
	switch fe.Tag() {
	case "required":
		return label.name + " é " + label.agree("obrigatório.", "obrigatória.")
	case "min":
		if fe.Field() == "Password" {
			return "A senha deve ter pelo menos 6 caracteres."
		}
	case "max":
		if fe.Field() == "Description" {
			return "Descrição muito longa (máx. 200 caracteres)."
		}
		return label.name + " muito " + label.agree("longo.", "longa.")
	}
	return label.name + " " + label.agree("inválido.", "inválida.")
}

// messageFor translates domain errors into short Portuguese messages.
func messageFor(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Valor inválido."
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidDay), errors.Is(err, core.ErrInvalidMonth):
		return "Data inválida."
	case errors.Is(err, core.ErrEmptyDescription):
		return "Descrição é obrigatória."
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Descrição muito longa (máx. 200 caracteres)."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Categoria inválida."
	case errors.Is(err, core.ErrInvalidCurrency):
		return "Moeda inválida."
	}
	return "Dados inválidos."
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
