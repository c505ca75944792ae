package storage_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/campusfin/internal/config"
	"github.com/MrJamesThe3rd/campusfin/internal/storage"
)

func TestOpen_Redis(t *testing.T) {
	srv := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageRedis
	cfg.Redis.Addr = srv.Addr()
	cfg.Redis.Prefix = "t"

	repos, err := storage.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer repos.Close()

	txs, err := repos.Transactions.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "sqlite"

	_, err := storage.Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported storage driver")
}
