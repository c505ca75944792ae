package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
)

type budgetRecord struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Period    string          `json:"period"`
	Spent     decimal.Decimal `json:"spent"`
	CreatedAt time.Time       `json:"created_at"`
}

func decodeBudget(raw string) (*budget.Budget, error) {
	var rec budgetRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding budget: %w", err)
	}

	return &budget.Budget{
		ID:        rec.ID,
		Category:  rec.Category,
		Limit:     rec.Limit,
		Period:    budget.Period(rec.Period),
		Spent:     rec.Spent,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func encodeBudget(b *budget.Budget) (string, error) {
	raw, err := json.Marshal(budgetRecord{
		ID:        b.ID,
		Category:  b.Category,
		Limit:     b.Limit,
		Period:    string(b.Period),
		Spent:     b.Spent,
		CreatedAt: b.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encoding budget: %w", err)
	}

	return string(raw), nil
}

// BudgetStore implements budget.Repository on a single redis hash.
type BudgetStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewBudgetStore(client *redis.Client, prefix string) *BudgetStore {
	return &BudgetStore{client: client, key: key(prefix, budgetsKey), now: time.Now}
}

func (s *BudgetStore) CreateBudget(ctx context.Context, b *budget.Budget) error {
	b.ID = uuid.New()
	b.CreatedAt = s.now().UTC()

	raw, err := encodeBudget(b)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.key, b.ID.String(), raw).Err(); err != nil {
		return fmt.Errorf("creating budget: %w", err)
	}

	return nil
}

func (s *BudgetStore) GetBudget(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	raw, err := s.client.HGet(ctx, s.key, id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting budget: %w", err)
	}

	return decodeBudget(raw)
}

func (s *BudgetStore) ListBudgets(ctx context.Context) ([]*budget.Budget, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}

	budgets := make([]*budget.Budget, 0, len(all))

	for field, raw := range all {
		b, err := decodeBudget(raw)
		if err != nil {
			slog.Warn("skipping undecodable budget", "key", s.key, "field", field, "error", err)
			continue
		}

		budgets = append(budgets, b)
	}

	slices.SortFunc(budgets, func(a, b *budget.Budget) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return budgets, nil
}

// UpdateBudget changes category, limit and period. The stored spent figure
// and creation time are kept.
func (s *BudgetStore) UpdateBudget(ctx context.Context, b *budget.Budget) error {
	field := b.ID.String()

	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		raw, err := rtx.HGet(ctx, s.key, field).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return budget.ErrNotFound
			}

			return err
		}

		existing, err := decodeBudget(raw)
		if err != nil {
			return err
		}

		existing.Category = b.Category
		existing.Limit = b.Limit
		existing.Period = b.Period

		encoded, err := encodeBudget(existing)
		if err != nil {
			return err
		}

		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, field, encoded)
			return nil
		})

		return err
	}, s.key)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			return err
		}

		return fmt.Errorf("updating budget: %w", err)
	}

	return nil
}

func (s *BudgetStore) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.HDel(ctx, s.key, id.String()).Result()
	if err != nil {
		return fmt.Errorf("deleting budget: %w", err)
	}

	if n == 0 {
		return budget.ErrNotFound
	}

	return nil
}
