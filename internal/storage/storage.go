// Package storage opens the repositories for the configured backend.
package storage

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/campusfin/internal/budget/store"
	"github.com/MrJamesThe3rd/campusfin/internal/config"
	"github.com/MrJamesThe3rd/campusfin/internal/database"
	"github.com/MrJamesThe3rd/campusfin/internal/kvstore"
	"github.com/MrJamesThe3rd/campusfin/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/campusfin/internal/matching/store"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
	txStore "github.com/MrJamesThe3rd/campusfin/internal/transaction/store"
)

type Repositories struct {
	Transactions transaction.Repository
	Budgets      budget.Repository
	Mappings     matching.Repository

	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}

	return r.close()
}

// Open connects to the backend named by cfg.Storage.Driver. Postgres schemas
// are migrated before the connection is handed out.
func Open(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return openPostgres(ctx, cfg)
	case config.StorageRedis:
		return openRedis(ctx, cfg)
	}

	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	connStr := cfg.ConnectionString()

	if err := database.Migrate(connStr); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	db, err := database.New(ctx, connStr, database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Transactions: txStore.New(db),
		Budgets:      budgetStore.New(db),
		Mappings:     matchingStore.New(db),
		close:        db.Close,
	}, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	client, err := kvstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Transactions: kvstore.NewTransactionStore(client, cfg.Redis.Prefix),
		Budgets:      kvstore.NewBudgetStore(client, cfg.Redis.Prefix),
		Mappings:     kvstore.NewMappingStore(client, cfg.Redis.Prefix),
		close:        client.Close,
	}, nil
}
