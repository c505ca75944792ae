package transaction

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error

	// ListTransactions returns the complete collection, unfiltered and unpaginated.
	ListTransactions(ctx context.Context) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	BeginImport(ctx context.Context, minDate, maxDate Date) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Type        Type
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        Date
	Tags        []string
}

// Validate applies the entry-point rules. The aggregation code never calls it.
func (p CreateParams) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}

	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !FitsMoneyScale(p.Amount) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MoneyScale)
	}

	if strings.TrimSpace(p.Category) == "" {
		return ErrMissingCategory
	}

	if strings.TrimSpace(p.Description) == "" {
		return ErrMissingDescription
	}

	if _, err := p.Date.Time(); err != nil {
		return err
	}

	return nil
}

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
)

type ListFilter struct {
	Type      *Type
	Search    string
	SortBy    SortKey
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	tx := newTransaction(params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Snapshot returns every stored transaction. Derived figures are always
// computed from a fresh snapshot.
func (s *Service) Snapshot(ctx context.Context) ([]*Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return txs, nil
}

// List returns the stored transactions narrowed and ordered by filter.
// Newest first unless SortByAmount is requested.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	return Apply(txs, filter), nil
}

// Apply filters and sorts txs in memory. The input slice is not modified.
func Apply(txs []*Transaction, filter ListFilter) []*Transaction {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]*Transaction, 0, len(txs))

	for _, tx := range txs {
		if tx == nil {
			continue
		}

		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}

		if !inRange(tx.Date, filter.StartDate, filter.EndDate) {
			continue
		}

		out = append(out, tx)
	}

	switch filter.SortBy {
	case SortByAmount:
		slices.SortStableFunc(out, func(a, b *Transaction) int {
			return b.Amount.Cmp(a.Amount)
		})
	default:
		slices.SortStableFunc(out, func(a, b *Transaction) int {
			return cmp.Compare(b.Date, a.Date)
		})
	}

	return out
}

func inRange(d Date, start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}

	t, err := d.Time()
	if err != nil {
		return false
	}

	if start != nil && t.Before(truncateDay(*start)) {
		return false
	}

	if end != nil && t.After(truncateDay(*end)) {
		return false
	}

	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	params := CreateParams{
		Type:        tx.Type,
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		Tags:        tx.Tags,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	return s.repo.UpdateTransaction(ctx, tx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// DuplicateKey identifies a transaction for duplicate detection on import.
type DuplicateKey struct {
	Date        Date
	Type        Type
	Amount      string
	Description string
}

func keyOf(date Date, typ Type, amount decimal.Decimal, description string) DuplicateKey {
	return DuplicateKey{
		Date:        date,
		Type:        typ,
		Amount:      amount.String(),
		Description: strings.TrimSpace(description),
	}
}

func (p CreateParams) Key() DuplicateKey {
	return keyOf(p.Date, p.Type, p.Amount, p.Description)
}

func (t *Transaction) Key() DuplicateKey {
	return keyOf(t.Date, t.Type, t.Amount, t.Description)
}

// ImportBatch writes params unless some of them already exist, in which case
// nothing is written and the split between new and conflicting rows is returned.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	if err := validateAll(params); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[DuplicateKey]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[d.Key()] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[p.Key()]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	txs := paramsToTransactions(newParams)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: txs}, nil
}

// CreateBatch writes params without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if err := validateAll(params); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	txs := paramsToTransactions(params)
	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}

func validateAll(params []CreateParams) error {
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	return nil
}

// dateRange expects validated params, so lexical order is date order.
func dateRange(params []CreateParams) (Date, Date) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		minDate = min(minDate, p.Date)
		maxDate = max(maxDate, p.Date)
	}

	return minDate, maxDate
}

func newTransaction(p CreateParams) *Transaction {
	return &Transaction{
		Type:        p.Type,
		Amount:      p.Amount,
		Category:    strings.TrimSpace(p.Category),
		Description: strings.TrimSpace(p.Description),
		Date:        p.Date,
		Tags:        p.Tags,
	}
}

func paramsToTransactions(params []CreateParams) []*Transaction {
	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = newTransaction(p)
	}

	return txs
}
