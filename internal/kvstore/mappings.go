package kvstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/campusfin/internal/matching"
)

type mappingRecord struct {
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// MappingStore implements matching.Repository. Matching happens client side
// with matching.BestMatch since redis has no substring query.
type MappingStore struct {
	client *redis.Client
	key    string
	seqKey string
	now    func() time.Time
}

func NewMappingStore(client *redis.Client, prefix string) *MappingStore {
	k := key(prefix, mappingsKey)

	return &MappingStore{client: client, key: k, seqKey: k + ":seq", now: time.Now}
}

func (s *MappingStore) FindMatch(ctx context.Context, description string) (string, error) {
	mappings, err := s.ListMappings(ctx)
	if err != nil {
		return "", fmt.Errorf("finding match: %w", err)
	}

	return matching.BestMatch(mappings, description), nil
}

func (s *MappingStore) CreateMapping(ctx context.Context, pattern, category string) error {
	id, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return fmt.Errorf("allocating mapping id: %w", err)
	}

	raw, err := json.Marshal(mappingRecord{Pattern: pattern, Category: category, CreatedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}

	if err := s.client.HSet(ctx, s.key, strconv.FormatInt(id, 10), string(raw)).Err(); err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}

func (s *MappingStore) ListMappings(ctx context.Context) ([]matching.Mapping, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	mappings := make([]matching.Mapping, 0, len(all))

	for field, raw := range all {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mapping id %q: %w", field, err)
		}

		var rec mappingRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding mapping: %w", err)
		}

		mappings = append(mappings, matching.Mapping{
			ID:        id,
			Pattern:   rec.Pattern,
			Category:  rec.Category,
			CreatedAt: rec.CreatedAt,
		})
	}

	slices.SortFunc(mappings, func(a, b matching.Mapping) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return mappings, nil
}
