package budget

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

var (
	ErrNotFound        = errors.New("budget not found")
	ErrInvalidLimit    = errors.New("budget limit must be greater than zero")
	ErrInvalidPeriod   = errors.New("invalid budget period")
	ErrMissingCategory = errors.New("category is required")
	ErrNilBudget       = errors.New("budget is nil")
)

// Period is the recurring window a budget's spending is measured over.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}

	return false
}

// Budget is a spending cap for one category over a recurring period.
type Budget struct {
	ID       uuid.UUID
	Category string
	Limit    decimal.Decimal
	Period   Period

	// Spent is whatever an older write path cached next to the budget. It is
	// carried for display compatibility only; evaluation always recomputes
	// spending from transactions.
	Spent decimal.Decimal

	CreatedAt time.Time
}

type CreateParams struct {
	Category string
	Limit    decimal.Decimal
	Period   Period
}

func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Category) == "" {
		return ErrMissingCategory
	}

	if !p.Limit.IsPositive() {
		return ErrInvalidLimit
	}

	if !transaction.FitsMoneyScale(p.Limit) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidLimit, transaction.MoneyScale)
	}

	if !p.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, p.Period)
	}

	return nil
}
