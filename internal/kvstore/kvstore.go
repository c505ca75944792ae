// Package kvstore keeps transactions, budgets and category mappings in redis
// hashes, one JSON record per field.
package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	transactionsKey = "transactions"
	budgetsKey      = "budgets"
	mappingsKey     = "category-mappings"
)

// Connect opens a client and verifies the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func key(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + ":" + name
}
