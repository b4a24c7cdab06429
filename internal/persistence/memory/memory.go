package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/persistence"
)

var _ persistence.Collaborator = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewWithRecords seeds the store. Ids are kept; new ids continue after the highest.
func NewWithRecords(records []core.Expense) *Store {
	s := New()
	for _, r := range records {
		s.items = append(s.items, r)
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

// FetchExpenses returns a copy of the stored records in insertion order.
func (s *Store) FetchExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// AddExpense stores the expense and assigns the next id.
func (s *Store) AddExpense(_ context.Context, e core.NewExpense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.items = append(s.items, core.Expense{
		ID:          id,
		Date:        e.Date,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
	})
	return id, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// GetExpense returns a single record by id.
func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("get %d: %w", id, core.ErrNotFound)
}
