package backend

import (
	"fmt"
	"log/slog"

	"spendlog/internal/records/memory"
	"spendlog/internal/storage"
)

// Factory creates record stores from configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the store described by config.
func (f *Factory) CreateStore(config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLite:
		return f.createSQLite(config)
	case Postgres:
		return f.createPostgres(config)
	default:
		return f.createMemory()
	}
}

func (f *Factory) createSQLite(config Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("Initialized sqlite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *Factory) createPostgres(config Config) (*Result, error) {
	store, err := storage.NewPostgresStore(config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres store: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	f.logger.Info("Initialized memory backend")

	return &Result{
		Store:   memory.New(),
		Cleanup: nil, // nothing to release
	}, nil
}
