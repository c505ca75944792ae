package kvstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()

	srv := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

func fixedClock(start time.Time) func() time.Time {
	current := start

	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTransactionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(newClient(t), "test")
	store.now = fixedClock(t0)

	tx := &transaction.Transaction{
		Type:        transaction.TypeExpense,
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Transportation",
		Description: "Bus pass",
		Date:        "2024-06-03",
		Tags:        []string{"monthly"},
	}
	require.NoError(t, store.CreateTransaction(ctx, tx))
	assert.NotEqual(t, uuid.Nil, tx.ID)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.Amount.String())
	assert.Equal(t, transaction.Date("2024-06-03"), got.Date)
	assert.Equal(t, []string{"monthly"}, got.Tags)

	got.Description = "Metro pass"
	require.NoError(t, store.UpdateTransaction(ctx, got))

	updated, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Metro pass", updated.Description)
	assert.True(t, updated.CreatedAt.Equal(tx.CreatedAt))

	require.NoError(t, store.DeleteTransaction(ctx, tx.ID))

	_, err = store.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
	assert.ErrorIs(t, store.DeleteTransaction(ctx, tx.ID), transaction.ErrNotFound)
	assert.ErrorIs(t, store.UpdateTransaction(ctx, tx), transaction.ErrNotFound)
}

func TestTransactionStore_ListKeepsMalformedDates(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(newClient(t), "test")
	store.now = fixedClock(t0)

	for _, d := range []transaction.Date{"2024-06-03", "2024-01-01", "garbage"} {
		require.NoError(t, store.CreateTransaction(ctx, &transaction.Transaction{
			Type: transaction.TypeIncome, Amount: decimal.NewFromInt(1), Date: d,
		}))
	}

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, transaction.Date("2024-01-01"), txs[0].Date)
	assert.Equal(t, transaction.Date("2024-06-03"), txs[1].Date)
	assert.Equal(t, transaction.Date("garbage"), txs[2].Date)
}

func TestTransactionStore_Import(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(newClient(t), "test")
	store.now = fixedClock(t0)
	svc := transaction.NewService(store)

	existing := transaction.CreateParams{
		Type: transaction.TypeExpense, Amount: decimal.RequireFromString("10"),
		Category: "Food & Groceries", Description: "Lunch", Date: "2024-06-02",
	}
	_, err := svc.Create(ctx, existing)
	require.NoError(t, err)

	fresh := transaction.CreateParams{
		Type: transaction.TypeExpense, Amount: decimal.RequireFromString("3"),
		Category: "Food & Groceries", Description: "Coffee", Date: "2024-06-04",
	}

	dup := existing
	dup.Amount = decimal.RequireFromString("10.00")

	result, err := svc.ImportBatch(ctx, []transaction.CreateParams{fresh, dup})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Lunch", result.Conflicts[0].Existing.Description)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "conflicting import must not write")

	result, err = svc.ImportBatch(ctx, result.New)
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)

	txs, err = store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTransactionStore_ImportsAreSerialised(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(newClient(t), "test")
	store.now = fixedClock(t0)

	rows := []transaction.CreateParams{{
		Type: transaction.TypeExpense, Amount: decimal.RequireFromString("4.20"),
		Category: "Food & Groceries", Description: "Canteen", Date: "2024-06-05",
	}}

	first, err := store.BeginImport(ctx, "2024-06-05", "2024-06-05")
	require.NoError(t, err)

	type begun struct {
		itx transaction.ImportTx
		err error
	}

	secondCh := make(chan begun, 1)

	go func() {
		itx, err := store.BeginImport(ctx, "2024-06-05", "2024-06-05")
		secondCh <- begun{itx: itx, err: err}
	}()

	select {
	case <-secondCh:
		t.Fatal("second import started while the first was still open")
	case <-time.After(150 * time.Millisecond):
	}

	dups, err := first.FindDuplicates(ctx, rows)
	require.NoError(t, err)
	assert.Empty(t, dups)

	require.NoError(t, first.CreateTransactions(ctx, []*transaction.Transaction{{
		Type: rows[0].Type, Amount: rows[0].Amount, Category: rows[0].Category,
		Description: rows[0].Description, Date: rows[0].Date,
	}}))
	require.NoError(t, first.Commit())

	var second begun
	select {
	case second = <-secondCh:
	case <-time.After(2 * time.Second):
		t.Fatal("second import never acquired the lock")
	}

	require.NoError(t, second.err)

	dups, err = second.itx.FindDuplicates(ctx, rows)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, "Canteen", dups[0].Description)
	require.NoError(t, second.itx.Rollback())

	third, err := store.BeginImport(ctx, "2024-06-05", "2024-06-05")
	require.NoError(t, err, "rollback must release the lock")
	require.NoError(t, third.Rollback())
}

func TestTransactionStore_BeginImportHonoursContext(t *testing.T) {
	store := NewTransactionStore(newClient(t), "test")

	held, err := store.BeginImport(context.Background(), "2024-06-01", "2024-06-01")
	require.NoError(t, err)

	defer held.Rollback()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = store.BeginImport(ctx, "2024-06-01", "2024-06-01")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransactionStore_ConcurrentImportBatch(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(newClient(t), "test")
	svc := transaction.NewService(store)

	rows := []transaction.CreateParams{
		{Type: transaction.TypeIncome, Amount: decimal.NewFromInt(300), Category: "Scholarship", Description: "Grant", Date: "2024-06-01"},
		{Type: transaction.TypeExpense, Amount: decimal.NewFromInt(40), Category: "Books & Supplies", Description: "Textbook", Date: "2024-06-02"},
	}

	var wg sync.WaitGroup

	results := make([]*transaction.ImportResult, 2)
	errs := make([]error, 2)

	for i := range 2 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.ImportBatch(ctx, rows)
		}()
	}

	wg.Wait()

	imported, conflicted := 0, 0

	for i := range 2 {
		require.NoError(t, errs[i])

		if len(results[i].Imported) > 0 {
			imported++
		}

		if len(results[i].Conflicts) > 0 {
			conflicted++
		}
	}

	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, conflicted)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTransactionStore_ListSkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	store := NewTransactionStore(client, "test")
	store.now = fixedClock(t0)

	require.NoError(t, store.CreateTransaction(ctx, &transaction.Transaction{
		Type: transaction.TypeIncome, Amount: decimal.NewFromInt(20), Category: "Refunds", Date: "2024-06-01",
	}))
	require.NoError(t, client.HSet(ctx, store.key, "broken", "{not json").Err())

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Refunds", txs[0].Category)
}

func TestBudgetStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewBudgetStore(newClient(t), "test")
	store.now = fixedClock(t0)

	b := &budget.Budget{
		Category: "Travel",
		Limit:    decimal.NewFromInt(100),
		Period:   budget.PeriodMonthly,
		Spent:    decimal.NewFromInt(42),
	}
	require.NoError(t, store.CreateBudget(ctx, b))

	second := &budget.Budget{Category: "Books & Supplies", Limit: decimal.NewFromInt(50), Period: budget.PeriodYearly}
	require.NoError(t, store.CreateBudget(ctx, second))

	list, err := store.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Travel", list[0].Category)

	b.Limit = decimal.NewFromInt(150)
	b.Spent = decimal.Zero
	require.NoError(t, store.UpdateBudget(ctx, b))

	got, err := store.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "150", got.Limit.String())
	assert.Equal(t, "42", got.Spent.String(), "legacy spent is left untouched")

	require.NoError(t, store.DeleteBudget(ctx, b.ID))
	_, err = store.GetBudget(ctx, b.ID)
	assert.ErrorIs(t, err, budget.ErrNotFound)
	assert.ErrorIs(t, store.UpdateBudget(ctx, b), budget.ErrNotFound)
}

func TestBudgetStore_ListSkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)
	store := NewBudgetStore(client, "test")
	store.now = fixedClock(t0)

	require.NoError(t, store.CreateBudget(ctx, &budget.Budget{
		Category: "Travel", Limit: decimal.NewFromInt(100), Period: budget.PeriodMonthly,
	}))
	require.NoError(t, client.HSet(ctx, store.key, "broken", `{"limit":`).Err())

	list, err := store.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Travel", list[0].Category)
}

func TestMappingStore(t *testing.T) {
	ctx := context.Background()
	store := NewMappingStore(newClient(t), "")
	store.now = fixedClock(t0)

	require.NoError(t, store.CreateMapping(ctx, "uber", "Transportation"))
	require.NoError(t, store.CreateMapping(ctx, "uber eats", "Food & Groceries"))

	got, err := store.FindMatch(ctx, "UBER EATS order")
	require.NoError(t, err)
	assert.Equal(t, "Food & Groceries", got)

	got, err = store.FindMatch(ctx, "bookstore")
	require.NoError(t, err)
	assert.Empty(t, got)

	mappings, err := store.ListMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, int64(1), mappings[0].ID)
	assert.Equal(t, "uber", mappings[0].Pattern)
}
