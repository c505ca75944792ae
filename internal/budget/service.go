package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*Budget, error)
	UpdateBudget(ctx context.Context, b *Budget) error
	ListBudgets(ctx context.Context) ([]*Budget, error)
	DeleteBudget(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo         Repository
	transactions *transaction.Service
	now          func() time.Time
}

func NewService(repo Repository, txService *transaction.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:         repo,
		transactions: txService,
		now:          now,
	}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Budget, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	b := &Budget{
		Category: strings.TrimSpace(params.Category),
		Limit:    params.Limit,
		Period:   params.Period,
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Budget, error) {
	return s.repo.ListBudgets(ctx)
}

func (s *Service) Update(ctx context.Context, b *Budget) error {
	params := CreateParams{Category: b.Category, Limit: b.Limit, Period: b.Period}
	if err := params.Validate(); err != nil {
		return err
	}

	return s.repo.UpdateBudget(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBudget(ctx, id)
}

// Evaluate loads every budget and the full transaction snapshot and evaluates
// each budget against it. A budget that cannot be evaluated keeps its error in
// Evaluation.Err and does not stop the others.
func (s *Service) Evaluate(ctx context.Context) ([]Evaluation, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}

	if len(budgets) == 0 {
		return []Evaluation{}, nil
	}

	txs, err := s.transactions.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	evals := make([]Evaluation, 0, len(budgets))

	for _, b := range budgets {
		if b == nil {
			slog.Warn("skipping nil budget")
			continue
		}

		eval, err := Evaluate(b, txs, now)
		if err != nil {
			slog.Warn("skipping budget evaluation", "budget_id", b.ID, "category", b.Category, "error", err)
		}

		evals = append(evals, eval)
	}

	return evals, nil
}

// EvaluateOne evaluates a single stored budget.
func (s *Service) EvaluateOne(ctx context.Context, id uuid.UUID) (Evaluation, error) {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}

	txs, err := s.transactions.Snapshot(ctx)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluate(b, txs, s.now())
}
