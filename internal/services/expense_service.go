package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/persistence"
)

// Repository is the storage the service writes through to.
type Repository interface {
	persistence.Collaborator
	Close() error
}

// EventPublisher announces committed changes to other processes.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, t amqp.EventType, id int64) error
	Close() error
}

var _ persistence.Collaborator = (*ExpenseService)(nil)

// ExpenseService orchestrates expense operations across storage and AMQP
type ExpenseService struct {
	storage   Repository
	publisher EventPublisher
}

// NewExpenseService wires storage with an optional publisher; a nil
// publisher disables events.
func NewExpenseService(storage Repository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

func (s *ExpenseService) FetchExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.FetchExpenses(ctx)
}

// AddExpense saves the expense and publishes an added event
func (s *ExpenseService) AddExpense(ctx context.Context, e core.NewExpense) (int64, error) {
	id, err := s.storage.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	// The row is committed; a lost event is repaired by the worker's reconcile
	if err := s.publish(ctx, amqp.EventExpenseAdded, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", amqp.EventExpenseAdded, "id", id, "error", err)
	}

	return id, nil
}

// DeleteExpense removes the expense and publishes a deleted event
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if err := s.publish(ctx, amqp.EventExpenseDeleted, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", amqp.EventExpenseDeleted, "id", id, "error", err)
	}

	return nil
}

func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, id int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping event", "type", t, "id", id)
		return nil
	}
	return s.publisher.PublishExpenseEvent(ctx, t, id)
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
