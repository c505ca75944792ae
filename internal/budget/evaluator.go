package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

// Status classifies spending against a limit.
type Status string

const (
	StatusGood     Status = "good"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

const (
	warningPercent  = 80
	exceededPercent = 100
)

var hundred = decimal.NewFromInt(100)

// Evaluation is the read-time view of a budget. It is never stored.
type Evaluation struct {
	Budget     *Budget
	Spent      decimal.Decimal
	Status     Status
	Percentage decimal.Decimal // spent / limit * 100, unclamped
	Progress   decimal.Decimal // Percentage clamped to [0, 100]
	Remaining  decimal.Decimal
	Overage    decimal.Decimal

	// Err is set by Service.Evaluate when this budget could not be evaluated.
	Err error
}

// WeekOfMonth buckets a day of the month into weeks 1 to 5 as ceil(day/7).
// Days 29 to 31 always land in week 5 whatever the weekday.
func WeekOfMonth(day int) int {
	return (day + 6) / 7
}

// Spent sums expense transactions in b's category that fall inside the
// period window containing now. Transactions with an unparseable date never
// match. The Spent field stored on b is ignored.
func Spent(b *Budget, txs []*transaction.Transaction, now time.Time) (decimal.Decimal, error) {
	if b == nil {
		return decimal.Zero, ErrNilBudget
	}

	if !b.Limit.IsPositive() {
		return decimal.Zero, ErrInvalidLimit
	}

	year, month, day := now.Date()
	week := WeekOfMonth(day)

	total := decimal.Zero

	for _, tx := range txs {
		if tx == nil || tx.Type != transaction.TypeExpense || tx.Category != b.Category {
			continue
		}

		d, err := tx.Date.Time()
		if err != nil {
			continue
		}

		var match bool

		switch b.Period {
		case PeriodMonthly:
			match = d.Year() == year && d.Month() == month
		case PeriodWeekly:
			match = d.Year() == year && d.Month() == month && WeekOfMonth(d.Day()) == week
		case PeriodYearly:
			match = d.Year() == year
		}

		if match {
			total = total.Add(tx.Amount)
		}
	}

	return total, nil
}

// Classify maps spending against limit to a Status: exceeded at or above
// 100%, warning from 80%, good below that.
func Classify(spent, limit decimal.Decimal) (Status, error) {
	if !limit.IsPositive() {
		return "", ErrInvalidLimit
	}

	// Compare spent*100 with limit*threshold instead of dividing.
	scaled := spent.Mul(hundred)

	switch {
	case scaled.GreaterThanOrEqual(limit.Mul(decimal.NewFromInt(exceededPercent))):
		return StatusExceeded, nil
	case scaled.GreaterThanOrEqual(limit.Mul(decimal.NewFromInt(warningPercent))):
		return StatusWarning, nil
	default:
		return StatusGood, nil
	}
}

// Percentage returns spent / limit * 100. limit must be positive.
func Percentage(spent, limit decimal.Decimal) decimal.Decimal {
	return spent.Mul(hundred).Div(limit)
}

// Progress is Percentage clamped to [0, 100] for progress bars.
func Progress(spent, limit decimal.Decimal) decimal.Decimal {
	p := Percentage(spent, limit)

	return decimal.Min(decimal.Max(p, decimal.Zero), hundred)
}

// Overage is how far spent is above limit, or zero.
func Overage(spent, limit decimal.Decimal) decimal.Decimal {
	return decimal.Max(spent.Sub(limit), decimal.Zero)
}

// Remaining is how much of limit is still unspent, or zero.
func Remaining(spent, limit decimal.Decimal) decimal.Decimal {
	return decimal.Max(limit.Sub(spent), decimal.Zero)
}

// Evaluate computes every read-time figure for b against txs.
func Evaluate(b *Budget, txs []*transaction.Transaction, now time.Time) (Evaluation, error) {
	if b == nil {
		return Evaluation{Err: ErrNilBudget}, ErrNilBudget
	}

	spent, err := Spent(b, txs, now)
	if err != nil {
		return Evaluation{Budget: b, Err: err}, err
	}

	status, err := Classify(spent, b.Limit)
	if err != nil {
		return Evaluation{Budget: b, Err: err}, err
	}

	return Evaluation{
		Budget:     b,
		Spent:      spent,
		Status:     status,
		Percentage: Percentage(spent, b.Limit),
		Progress:   Progress(spent, b.Limit),
		Remaining:  Remaining(spent, b.Limit),
		Overage:    Overage(spent, b.Limit),
	}, nil
}
