package core

import (
	"slices"
	"strconv"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for every stored date.
const DateLayout = "2006-01-02"

const (
	Food          Category = "Food"
	Rent          Category = "Rent"
	Bills         Category = "Bills"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Other         Category = "Other"
)

type (
	Category string

	// Expense is a stored expense record as returned by the persistence layer.
	Expense struct {
		ID          int64
		Date        string
		Category    string
		Amount      string
		Description string
	}

	// NewExpense is the input of an add request. Amount stays text: it is
	// stored exactly as entered.
	NewExpense struct {
		Date        string
		Category    string
		Amount      string
		Description string
	}
)

var categories = []Category{Food, Rent, Bills, Entertainment, Shopping, Other}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

// CategoryNames returns the fixed category set as plain strings.
func CategoryNames() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// IsValid reports whether c belongs to the fixed category set.
func (c Category) IsValid() bool {
	return slices.Contains(categories, c)
}

// Cells renders every field of the record as text, in table column order.
func (e Expense) Cells() []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date,
		e.Category,
		e.Amount,
		e.Description,
	}
}

// FormatDate formats t as a stored date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Validate checks the add input. Empty amount or description is the only
// rule the form itself enforces; date and category are checked because a
// submitted form cannot constrain them the way a picker can. Amount and
// description are stored as typed, so whitespace alone is not empty.
func (n NewExpense) Validate() error {
	if n.Amount == "" || n.Description == "" {
		return ErrMissingFields
	}
	if _, err := time.Parse(DateLayout, n.Date); err != nil {
		return ErrInvalidDate
	}
	if !Category(n.Category).IsValid() {
		return ErrUnknownCategory
	}
	return nil
}
