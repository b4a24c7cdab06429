package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/persistence/memory"
)

type closableStore struct {
	*memory.Store
	closed   bool
	closeErr error
}

func (c *closableStore) Close() error {
	c.closed = true
	return c.closeErr
}

type published struct {
	Type amqp.EventType
	ID   int64
}

type fakePublisher struct {
	events []published
	err    error
	closed bool
}

func (p *fakePublisher) PublishExpenseEvent(ctx context.Context, t amqp.EventType, id int64) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{t, id})
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

var lunch = core.NewExpense{Date: "2024-01-05", Category: "Food", Amount: "12.50", Description: "Lunch"}

func TestExpenseService_PublishesAfterCommit(t *testing.T) {
	store := &closableStore{Store: memory.New()}
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub)
	ctx := context.Background()

	id, err := svc.AddExpense(ctx, lunch)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteExpense(ctx, id))

	assert.Equal(t, []published{
		{amqp.EventExpenseAdded, id},
		{amqp.EventExpenseDeleted, id},
	}, pub.events)
}

func TestExpenseService_NoEventOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewExpenseService(&closableStore{Store: memory.New()}, pub)
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, core.NewExpense{Date: "2024-01-05", Category: "Food"})
	assert.ErrorIs(t, err, core.ErrMissingFields)

	err = svc.DeleteExpense(ctx, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, pub.events)
}

func TestExpenseService_PublishErrorDoesNotFailAction(t *testing.T) {
	svc := NewExpenseService(&closableStore{Store: memory.New()}, &fakePublisher{err: errors.New("broker down")})
	ctx := context.Background()

	id, err := svc.AddExpense(ctx, lunch)
	require.NoError(t, err)

	records, err := svc.FetchExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	assert.NoError(t, svc.DeleteExpense(ctx, id))
}

func TestExpenseService_NilPublisher(t *testing.T) {
	svc := NewExpenseService(&closableStore{Store: memory.New()}, nil)
	_, err := svc.AddExpense(context.Background(), lunch)
	assert.NoError(t, err)
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("closes all components", func(t *testing.T) {
		store := &closableStore{Store: memory.New()}
		pub := &fakePublisher{}
		require.NoError(t, NewExpenseService(store, pub).Close())
		assert.True(t, store.closed)
		assert.True(t, pub.closed)
	})

	t.Run("reports storage error", func(t *testing.T) {
		store := &closableStore{Store: memory.New(), closeErr: errors.New("busy")}
		err := NewExpenseService(store, nil).Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage")
	})

	t.Run("nil components", func(t *testing.T) {
		assert.NoError(t, (&ExpenseService{}).Close())
	})
}
