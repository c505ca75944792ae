package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

const dbTimeout = 5 * time.Second

var (
	incomeColor   = lipgloss.Color("42")
	expenseColor  = lipgloss.Color("196")
	warningColor  = lipgloss.Color("214")
	mutedColor    = lipgloss.Color("240")
	accentColor   = lipgloss.Color("205")
	selectedColor = lipgloss.Color("57")
)

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatSigned prefixes the amount with + for income and - for expenses.
func FormatSigned(t transaction.Type, d decimal.Decimal) string {
	if t == transaction.TypeIncome {
		return "+" + FormatAmount(d)
	}

	return "-" + FormatAmount(d)
}

// FormatBalance colours a balance green when non-negative and red otherwise.
func FormatBalance(d decimal.Decimal) string {
	color := incomeColor
	if d.IsNegative() {
		color = expenseColor
	}

	return lipgloss.NewStyle().Foreground(color).Render(FormatAmount(d))
}

func statusColor(s budget.Status) lipgloss.Color {
	switch s {
	case budget.StatusExceeded:
		return expenseColor
	case budget.StatusWarning:
		return warningColor
	}

	return incomeColor
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(accentColor).Render(s)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
