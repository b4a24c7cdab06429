package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/persistence/memory"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend, PostgresBackend:
		return f.createSQLBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// OpenRepository opens the SQL repository without the event layer.
func OpenRepository(ctx context.Context, config Config) (*storage.Repository, error) {
	driver, dsn, err := config.Driver()
	if err != nil {
		return nil, err
	}
	repo, err := storage.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", driver, err)
	}
	return repo, nil
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := OpenRepository(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional; without it the worker's reconcile still converges
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(repo, publisher)

	f.logger.Info("Initialized SQL backend",
		"type", config.Type,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: memory.New(),
		Cleanup: nil,
	}, nil
}
