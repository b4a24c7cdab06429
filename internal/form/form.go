// Package form implements the expense entry form: input state, the result
// table and the add/delete actions. It is independent of how the form is
// drawn; the HTTP layer renders it as a page.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/persistence"
)

var (
	// ErrCancelled is returned by SubmitDelete when the user declines the confirmation.
	ErrCancelled = errors.New("delete cancelled")

	// ErrRefresh marks a failed table reload after a successful add or delete.
	// The change is stored; only the displayed rows are stale.
	ErrRefresh = errors.New("refresh table")
)

// Dialogs shows blocking messages to the user.
type Dialogs interface {
	Warning(title, message string)
	Critical(title, message string)
	// Question asks a yes/no question and reports whether the answer is yes.
	Question(title, message string) bool
}

// Inputs is the editable state of the form.
type Inputs struct {
	Date        string
	Category    int
	Amount      string
	Description string
}

type Form struct {
	store   persistence.Collaborator
	dialogs Dialogs
	now     func() time.Time

	categories []string
	inputs     Inputs
	table      *Table
}

type Option func(*Form)

// WithClock overrides the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// New builds a form with populated category options and default inputs.
// The table starts empty; call RefreshTable to load it.
func New(store persistence.Collaborator, dialogs Dialogs, opts ...Option) *Form {
	f := &Form{
		store:   store,
		dialogs: dialogs,
		now:     time.Now,
		table:   NewTable(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.PopulateCategoryOptions()
	f.ClearInputs()
	return f
}

// PopulateCategoryOptions fills the category selector with the fixed set.
func (f *Form) PopulateCategoryOptions() {
	f.categories = core.CategoryNames()
}

func (f *Form) CategoryOptions() []string {
	return append([]string(nil), f.categories...)
}

func (f *Form) Inputs() Inputs {
	return f.inputs
}

func (f *Form) SetInputs(in Inputs) {
	f.inputs = in
}

// SetCategory selects the option with the given text. Unknown names leave
// an out-of-range index so the add is rejected.
func (f *Form) SetCategory(name string) {
	for i, c := range f.categories {
		if c == name {
			f.inputs.Category = i
			return
		}
	}
	f.inputs.Category = -1
}

func (f *Form) Table() *Table {
	return f.table
}

// ClearInputs resets inputs to today, first category and empty text fields.
func (f *Form) ClearInputs() {
	f.inputs = Inputs{Date: core.FormatDate(f.now())}
}

// RefreshTable rebuilds the table from the collaborator's current records.
// On fetch failure the table keeps the previous rows.
func (f *Form) RefreshTable(ctx context.Context) error {
	records, err := f.store.FetchExpenses(ctx)
	if err != nil {
		return fmt.Errorf("fetch expenses: %w", err)
	}
	f.table.Clear()
	for _, r := range records {
		f.table.AppendRow(r.Cells())
	}
	return nil
}

// SubmitAdd validates the inputs and stores a new expense.
func (f *Form) SubmitAdd(ctx context.Context) error {
	date := strings.TrimSpace(f.inputs.Date)
	if date == "" {
		date = core.FormatDate(f.now())
	}
	category := ""
	if i := f.inputs.Category; i >= 0 && i < len(f.categories) {
		category = f.categories[i]
	}
	exp := core.NewExpense{
		Date:        date,
		Category:    category,
		Amount:      f.inputs.Amount,
		Description: f.inputs.Description,
	}

	if err := exp.Validate(); err != nil {
		f.warn(err)
		return err
	}

	if _, err := f.store.AddExpense(ctx, exp); err != nil {
		f.dialogs.Critical("Error", "Failed to add expense")
		return &core.PersistenceError{Op: "add", Err: err}
	}

	if err := f.RefreshTable(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	f.ClearInputs()
	return nil
}

// SubmitDelete removes the expense on the selected row after confirmation.
func (f *Form) SubmitDelete(ctx context.Context) error {
	row := f.table.CurrentRow()
	if row == -1 {
		f.warn(core.ErrNoSelection)
		return core.ErrNoSelection
	}

	id, err := strconv.ParseInt(strings.TrimSpace(f.table.Cell(row, 0)), 10, 64)
	if err != nil {
		f.warn(core.ErrInvalidID)
		return core.ErrInvalidID
	}

	if !f.dialogs.Question("Confirm", "Are you sure you want to delete this expense?") {
		return ErrCancelled
	}

	if err := f.store.DeleteExpense(ctx, id); err != nil {
		f.dialogs.Critical("Error", "Failed to delete expense")
		return &core.PersistenceError{Op: "delete", Err: err}
	}

	if err := f.RefreshTable(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return nil
}

func (f *Form) warn(err error) {
	var v *core.ValidationError
	if errors.As(err, &v) {
		f.dialogs.Warning(v.Title, v.Message)
		return
	}
	f.dialogs.Warning("Input Error", err.Error())
}
