// Package overview derives income and expense summaries from transactions.
package overview

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

// Overview holds lifetime and current-month totals. It is recomputed on
// every read and never stored.
type Overview struct {
	TotalIncome     decimal.Decimal
	TotalExpenses   decimal.Decimal
	Balance         decimal.Decimal
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
}

// MonthlyBalance is the current month's income minus its expenses.
func (o Overview) MonthlyBalance() decimal.Decimal {
	return o.MonthlyIncome.Sub(o.MonthlyExpenses)
}

var two = decimal.NewFromInt(2)

// AverageMonthly is the mean of the current month's income and expenses.
func (o Overview) AverageMonthly() decimal.Decimal {
	return o.MonthlyIncome.Add(o.MonthlyExpenses).Div(two)
}

// Compute sums txs by type, over all time and over the calendar month of now.
//
// Amounts are summed as given. A transaction whose date does not parse still
// counts toward the lifetime totals but never toward the monthly ones.
func Compute(txs []*transaction.Transaction, now time.Time) Overview {
	year, month, _ := now.Date()

	o := Overview{
		TotalIncome:     decimal.Zero,
		TotalExpenses:   decimal.Zero,
		MonthlyIncome:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
	}

	for _, tx := range txs {
		if tx == nil {
			continue
		}

		var total, monthly *decimal.Decimal

		switch tx.Type {
		case transaction.TypeIncome:
			total, monthly = &o.TotalIncome, &o.MonthlyIncome
		case transaction.TypeExpense:
			total, monthly = &o.TotalExpenses, &o.MonthlyExpenses
		default:
			continue
		}

		*total = total.Add(tx.Amount)

		d, err := tx.Date.Time()
		if err != nil {
			continue
		}

		if d.Year() == year && d.Month() == month {
			*monthly = monthly.Add(tx.Amount)
		}
	}

	o.Balance = o.TotalIncome.Sub(o.TotalExpenses)

	return o
}

// Recent returns up to n transactions, newest date first. Transactions with
// an unparseable date sort after all others.
func Recent(txs []*transaction.Transaction, n int) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil {
			out = append(out, tx)
		}
	}

	slices.SortStableFunc(out, func(a, b *transaction.Transaction) int {
		at, aErr := a.Date.Time()
		bt, bErr := b.Date.Time()

		switch {
		case aErr != nil && bErr != nil:
			return 0
		case aErr != nil:
			return 1
		case bErr != nil:
			return -1
		}

		return cmp.Compare(bt.Unix(), at.Unix())
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}

	return out
}
