package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Input holds the raw values collected by the add form.
type Input struct {
	Description string `validate:"required"`
	Amount      string `validate:"required"`
	Category    string `validate:"required"`
	Type        string `validate:"required"`
}

// Entry is a validated Input, ready to become a Transaction.
type Entry struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	Type        Type
}

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Err   error
}

// ValidationError lists every problem found in an Input.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Err.Error())
	}
	return "invalid transaction: " + strings.Join(parts, "; ")
}

// Unwrap exposes the field errors to errors.Is.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Problems))
	for _, p := range e.Problems {
		errs = append(errs, p.Err)
	}
	return errs
}

// Field returns the error recorded for field, if any.
func (e *ValidationError) Field(field string) error {
	for _, p := range e.Problems {
		if p.Field == field {
			return p.Err
		}
	}
	return nil
}

func (e *ValidationError) add(field string, err error) {
	if e.Field(field) != nil {
		return
	}
	e.Problems = append(e.Problems, FieldError{Field: field, Err: err})
}

var validate = validator.New()

// Validate checks the input and converts it into an Entry.
// The returned error is always a *ValidationError.
func (in Input) Validate() (Entry, error) {
	in = Input{
		Description: strings.TrimSpace(in.Description),
		Amount:      strings.TrimSpace(in.Amount),
		Category:    strings.TrimSpace(in.Category),
		Type:        strings.TrimSpace(in.Type),
	}

	verr := &ValidationError{}
	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Entry{}, err
		}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Description":
				verr.add("description", ErrEmptyDescription)
			case "Amount":
				verr.add("amount", ErrInvalidAmount)
			case "Category":
				verr.add("category", ErrEmptyCategory)
			case "Type":
				verr.add("type", ErrInvalidType)
			}
		}
	}

	entry := Entry{Description: in.Description, Category: in.Category}

	if verr.Field("amount") == nil {
		amount, err := ParseAmount(in.Amount)
		if err != nil {
			verr.add("amount", err)
		}
		entry.Amount = amount
	}

	if verr.Field("type") == nil {
		t, err := ParseType(in.Type)
		if err != nil {
			verr.add("type", err)
		}
		entry.Type = t
	}

	if verr.Field("type") == nil && verr.Field("category") == nil && !IsValidCategory(entry.Type, entry.Category) {
		verr.add("category", ErrCategoryNotAllowed)
	}

	if len(verr.Problems) > 0 {
		return Entry{}, verr
	}
	return entry, nil
}
