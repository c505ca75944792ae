package kvstore

import (
	"cmp"
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

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

type transactionRecord struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionRecord(tx *transaction.Transaction) transactionRecord {
	return transactionRecord{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date.String(),
		Tags:        tx.Tags,
		CreatedAt:   tx.CreatedAt,
	}
}

func (r transactionRecord) toTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:          r.ID,
		Type:        transaction.Type(r.Type),
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        transaction.Date(r.Date),
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
	}
}

func decodeTransaction(raw string) (*transaction.Transaction, error) {
	var rec transactionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}

	return rec.toTransaction(), nil
}

func encodeTransaction(tx *transaction.Transaction) (string, error) {
	b, err := json.Marshal(toTransactionRecord(tx))
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}

	return string(b), nil
}

// TransactionStore implements transaction.Repository on a single redis hash.
type TransactionStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewTransactionStore(client *redis.Client, prefix string) *TransactionStore {
	return &TransactionStore{client: client, key: key(prefix, transactionsKey), now: time.Now}
}

// assign gives tx a fresh ID and creation time, as a database default would.
func (s *TransactionStore) assign(tx *transaction.Transaction) {
	tx.ID = uuid.New()
	tx.CreatedAt = s.now().UTC()
}

func (s *TransactionStore) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	s.assign(tx)

	raw, err := encodeTransaction(tx)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.key, tx.ID.String(), raw).Err(); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *TransactionStore) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	raw, err := s.client.HGet(ctx, s.key, id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return decodeTransaction(raw)
}

func (s *TransactionStore) ListTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	return s.list(ctx)
}

func (s *TransactionStore) list(ctx context.Context) ([]*transaction.Transaction, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(all))

	for field, raw := range all {
		tx, err := decodeTransaction(raw)
		if err != nil {
			slog.Warn("skipping undecodable transaction", "key", s.key, "field", field, "error", err)
			continue
		}

		txs = append(txs, tx)
	}

	// Hash iteration order is random; keep the postgres store's ordering.
	slices.SortFunc(txs, func(a, b *transaction.Transaction) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			a.CreatedAt.Compare(b.CreatedAt),
		)
	})

	return txs, nil
}

// UpdateTransaction replaces an existing record; the ID and creation time are
// preserved.
func (s *TransactionStore) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	field := tx.ID.String()

	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		raw, err := rtx.HGet(ctx, s.key, field).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return transaction.ErrNotFound
			}

			return err
		}

		existing, err := decodeTransaction(raw)
		if err != nil {
			return err
		}

		updated := *tx
		updated.CreatedAt = existing.CreatedAt

		encoded, err := encodeTransaction(&updated)
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
		if errors.Is(err, transaction.ErrNotFound) {
			return err
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (s *TransactionStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.HDel(ctx, s.key, id.String()).Result()
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

const (
	importLockTTL  = 30 * time.Second
	importLockPoll = 25 * time.Millisecond
)

// releaseImportLock deletes the lock only while it still holds our token.
var releaseImportLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BeginImport takes the import lock, waiting for any running import to
// finish, and queues writes on a MULTI/EXEC pipeline that is only sent on
// Commit. The lock is held from the duplicate scan until Commit or Rollback.
func (s *TransactionStore) BeginImport(ctx context.Context, minDate, maxDate transaction.Date) (transaction.ImportTx, error) {
	lockKey := s.key + ":import-lock"
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, importLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring import lock: %w", err)
		}

		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquiring import lock: %w", ctx.Err())
		case <-time.After(importLockPoll):
		}
	}

	return &importTx{
		store:   s,
		ctx:     ctx,
		pipe:    s.client.TxPipeline(),
		lockKey: lockKey,
		token:   token,
		minDate: minDate,
		maxDate: maxDate,
	}, nil
}

type importTx struct {
	store   *TransactionStore
	ctx     context.Context
	pipe    redis.Pipeliner
	lockKey string
	token   string
	minDate transaction.Date
	maxDate transaction.Date
	done    bool
}

func (itx *importTx) unlock() {
	ctx := context.WithoutCancel(itx.ctx)
	if err := releaseImportLock.Run(ctx, itx.store.client, []string{itx.lockKey}, itx.token).Err(); err != nil {
		slog.Warn("failed to release import lock", "key", itx.lockKey, "error", err)
	}
}

func (itx *importTx) FindDuplicates(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	keySet := make(map[transaction.DuplicateKey]struct{}, len(params))
	for _, p := range params {
		keySet[p.Key()] = struct{}{}
	}

	txs, err := itx.store.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	var duplicates []*transaction.Transaction

	for _, tx := range txs {
		if tx.Date < itx.minDate || tx.Date > itx.maxDate {
			continue
		}

		if _, found := keySet[tx.Key()]; found {
			duplicates = append(duplicates, tx)
		}
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		itx.store.assign(tx)

		raw, err := encodeTransaction(tx)
		if err != nil {
			return err
		}

		itx.pipe.HSet(ctx, itx.store.key, tx.ID.String(), raw)
	}

	return nil
}

func (itx *importTx) Commit() error {
	if itx.done {
		return nil
	}

	itx.done = true
	defer itx.unlock()

	if _, err := itx.pipe.Exec(itx.ctx); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}

	return nil
}

func (itx *importTx) Rollback() error {
	if itx.done {
		return nil
	}

	itx.done = true
	itx.pipe.Discard()
	itx.unlock()

	return nil
}
