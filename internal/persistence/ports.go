package persistence

import (
	"context"

	"expensetracker/internal/core"
)

// Ports consumed by the expense form.
type (
	ExpenseFetcher interface {
		// FetchExpenses returns every stored record in storage order.
		FetchExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseAdder interface {
		// AddExpense stores a new record and returns its id.
		AddExpense(ctx context.Context, e core.NewExpense) (int64, error)
	}

	ExpenseDeleter interface {
		// DeleteExpense removes the record; unknown ids yield core.ErrNotFound.
		DeleteExpense(ctx context.Context, id int64) error
	}

	// Collaborator is the full persistence contract behind the form.
	Collaborator interface {
		ExpenseFetcher
		ExpenseAdder
		ExpenseDeleter
	}
)
