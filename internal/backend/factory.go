package backend

import (
	"context"
	"fmt"
	"log/slog"

	"khata/internal/adapters"
	"khata/internal/log"
	"khata/internal/store"
	"khata/internal/store/memory"
	"khata/internal/store/sqlite"
	"khata/internal/store/supabase"
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
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. Every store it returns
// bounds its calls by config.Timeout.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch config.Type {
	case MemoryBackend:
		st, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		st, err = f.createSQLiteBackend(config)
	case SupabaseBackend:
		st, err = f.createSupabaseBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Initialized store",
		log.FieldBackend, config.Type.String(),
		"timeout", config.Timeout.String())

	st = adapters.WithTimeout(st, config.Timeout)
	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (store.Store, error) {
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed: %w", err)
	}
	if config.SeedFile != "" {
		f.logger.Info("Loaded memory seed", "seed_file", config.SeedFile)
	}
	return st, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (store.Store, error) {
	st, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Opened SQLite database", "db_path", config.SQLiteDBPath)
	return st, nil
}

func (f *DefaultFactory) createSupabaseBackend(config Config) (store.Store, error) {
	client := supabase.NewClient(supabase.Config{
		BaseURL:    config.SupabaseURL,
		APIKey:     config.SupabaseAPIKey,
		ServiceKey: config.SupabaseServiceKey,
		Timeout:    config.Timeout,
	}, nil, supabase.NewBreaker("supabase"))
	return supabase.New(client), nil
}
