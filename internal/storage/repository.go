package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"expensetracker/internal/core"
	"expensetracker/internal/persistence"
)

// Driver selects the SQL database behind the repository.
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

func (d Driver) IsValid() bool {
	return d == SQLite || d == Postgres
}

func (d Driver) sqlName() string {
	return string(d)
}

func (d Driver) placeholder() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

const expensesTable = "expenses"

var expenseColumns = []string{"id", "date", "category", "amount", "description"}

var _ persistence.Collaborator = (*Repository)(nil)

type Repository struct {
	db     *sql.DB
	driver Driver
	sb     sq.StatementBuilderType
}

// Open connects to the database, runs migrations and returns a ready repository.
// For SQLite dsn is a file path; its directory is created if missing.
func Open(ctx context.Context, driver Driver, dsn string) (*Repository, error) {
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	if driver == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(driver.sqlName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == SQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(driver.placeholder()).RunWith(db),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchExpenses returns every expense ordered by id.
func (r *Repository) FetchExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.sb.Select(expenseColumns...).
		From(expensesTable).
		OrderBy("id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// AddExpense inserts the expense and returns the new id.
func (r *Repository) AddExpense(ctx context.Context, e core.NewExpense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.sb.Insert(expensesTable).
		Columns("date", "category", "amount", "description").
		Values(e.Date, e.Category, e.Amount, e.Description).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"driver", r.driver,
		"date", e.Date,
		"category", e.Category,
		"amount", e.Amount)

	return id, nil
}

// DeleteExpense removes the expense with the given id.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.sb.Delete(expensesTable).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "driver", r.driver)
	return nil
}

// GetExpense retrieves a single expense by id.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.sb.Select(expenseColumns...).
		From(expensesTable).
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}
