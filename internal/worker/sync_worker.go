package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

// Source is the database side of the mirror.
type Source interface {
	FetchExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
}

// EventSource delivers expense events until ctx is done.
type EventSource interface {
	ConsumeExpenseEvents(ctx context.Context, handler amqp.Handler) error
}

// SyncWorker keeps a RowMirror in step with the expense table.
type SyncWorker struct {
	source   Source
	mirror   sheets.RowMirror
	interval time.Duration
}

func NewSyncWorker(source Source, mirror sheets.RowMirror, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		source:   source,
		mirror:   mirror,
		interval: interval,
	}
}

// HandleEvent applies a single change event to the mirror.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", "type", ev.Type, "id", ev.ID)

	switch ev.Type {
	case amqp.EventExpenseAdded:
		expense, err := w.source.GetExpense(ctx, ev.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here; the delete event handles the sheet
			slog.InfoContext(ctx, "Expense no longer exists, skipping", "id", ev.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense %d: %w", ev.ID, err)
		}
		if err := w.mirror.AppendRow(ctx, expense.Cells()); err != nil {
			return fmt.Errorf("append expense %d: %w", ev.ID, err)
		}
	case amqp.EventExpenseDeleted:
		if err := w.mirror.DeleteRow(ctx, strconv.FormatInt(ev.ID, 10)); err != nil {
			return fmt.Errorf("delete expense %d: %w", ev.ID, err)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	slog.InfoContext(ctx, "Mirrored expense event", "type", ev.Type, "id", ev.ID)
	return nil
}

// Reconcile rewrites the mirror from the full expense table. It repairs
// drift from lost or duplicated events.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	records, err := w.source.FetchExpenses(ctx)
	if err != nil {
		return fmt.Errorf("fetch expenses: %w", err)
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Cells()
	}
	if err := w.mirror.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	slog.InfoContext(ctx, "Reconciled mirror", "rows", len(rows))
	return nil
}

// Run reconciles once, then consumes events and reconciles every interval
// until ctx is cancelled or the consumer fails. events may be nil, in which
// case only the periodic reconcile runs.
func (w *SyncWorker) Run(ctx context.Context, events EventSource) error {
	g, ctx := errgroup.WithContext(ctx)

	if events != nil {
		g.Go(func() error {
			err := events.ConsumeExpenseEvents(ctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.InfoContext(ctx, "No event source configured, running periodic reconcile only")
	}

	g.Go(func() error {
		w.reconcileLoop(ctx)
		return nil
	})

	return g.Wait()
}

func (w *SyncWorker) reconcileLoop(ctx context.Context) {
	if err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconcile failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reconcile failed", "error", err)
			}
		}
	}
}
