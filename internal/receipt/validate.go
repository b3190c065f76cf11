package receipt

import (
	"fmt"
	"strings"
)

// Validator checks candidate records against the configured category list.
// All checks are synchronous; the first failing check rejects the submission.
type Validator struct {
	categories map[string]bool
}

// NewValidator builds a validator from the configured categories.
func NewValidator(categories []string) *Validator {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return &Validator{categories: set}
}

// Validate normalizes and checks a candidate. On success it returns the
// candidate with the date in canonical form and the item trimmed. On failure
// it returns a *ValidationError describing the first failing field.
func (v *Validator) Validate(c Candidate) (Candidate, error) {
	if strings.TrimSpace(c.Date) == "" {
		return c, validationErr("date", "Please enter a date.")
	}
	normalized := NormalizeDate(c.Date)
	if normalized == "" {
		return c, validationErr("date", "Invalid date format. Use YYYY-MM-DD or DD/MM/YYYY.")
	}
	c.Date = normalized

	c.Item = strings.TrimSpace(c.Item)
	if c.Item == "" {
		return c, validationErr("item", "Please enter an item description.")
	}

	if !v.categories[c.Category] {
		return c, validationErr("category", fmt.Sprintf("Unknown category %q.", c.Category))
	}

	if !c.Amount.Valid {
		return c, validationErr("amount", "Please enter an amount.")
	}
	if c.Amount.Decimal.IsNegative() {
		return c, validationErr("amount", "Please enter a valid amount.")
	}

	return c, nil
}
