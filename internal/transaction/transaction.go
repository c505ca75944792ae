package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("transaction not found")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingDescription = errors.New("description is required")
	ErrMalformedDate      = errors.New("malformed date")
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Date is a calendar date encoded as YYYY-MM-DD.
//
// It is kept in its encoded form so that records with a broken date can still
// be loaded and counted; callers decide what to do when Time fails.
type Date string

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(time.DateOnly))
}

// Time parses the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, string(d))
	}

	return t, nil
}

func (d Date) String() string {
	return string(d)
}

// MoneyScale is the number of decimal places stored for money values.
const MoneyScale = 2

// FitsMoneyScale reports whether d can be stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// Transaction represents a single income or expense event.
type Transaction struct {
	ID          uuid.UUID
	Type        Type
	Amount      decimal.Decimal // Magnitude only, sign implied by Type
	Category    string
	Description string
	Date        Date
	Tags        []string
	CreatedAt   time.Time
}

// IncomeCategories are the categories offered for income entries.
var IncomeCategories = []string{
	"Part-time Job",
	"Internship",
	"Scholarship",
	"Financial Aid",
	"Family Support",
	"Freelance Work",
	"Tutoring",
	"Research Assistant",
	"Teaching Assistant",
	"Campus Job",
	"Side Hustle",
	"Investment Returns",
	"Refunds",
	"Other",
}

// ExpenseCategories are the categories offered for expense entries and budgets.
var ExpenseCategories = []string{
	"Tuition & Fees",
	"Books & Supplies",
	"Housing & Rent",
	"Food & Groceries",
	"Transportation",
	"Entertainment",
	"Health & Medical",
	"Clothing",
	"Technology",
	"Utilities",
	"Phone & Internet",
	"Insurance",
	"Personal Care",
	"Travel",
	"Emergency Fund",
	"Other",
}

// CategoriesFor returns the offered categories for the given type.
func CategoriesFor(t Type) []string {
	if t == TypeIncome {
		return IncomeCategories
	}

	return ExpenseCategories
}
