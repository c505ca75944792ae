package overview

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

const recentLimit = 5

// Summary is what the dashboard shows.
type Summary struct {
	Overview         Overview
	MonthlyBalance   decimal.Decimal
	AverageMonthly   decimal.Decimal
	TransactionCount int
	Recent           []*transaction.Transaction
}

type Service struct {
	transactions *transaction.Service
	now          func() time.Time
}

func NewService(txService *transaction.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{transactions: txService, now: now}
}

// Summary computes the dashboard figures from a fresh transaction snapshot.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	txs, err := s.transactions.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	o := Compute(txs, s.now())

	count := 0
	for _, tx := range txs {
		if tx != nil {
			count++
		}
	}

	return &Summary{
		Overview:         o,
		MonthlyBalance:   o.MonthlyBalance(),
		AverageMonthly:   o.AverageMonthly(),
		TransactionCount: count,
		Recent:           Recent(txs, recentLimit),
	}, nil
}
