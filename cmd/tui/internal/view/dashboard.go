package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/campusfin/internal/overview"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

type DashboardModel struct {
	CommonModel
	overviewService *overview.Service

	summary *overview.Summary
	loading bool
	err     error
}

func NewDashboardModel(svc *overview.Service) DashboardModel {
	return DashboardModel{overviewService: svc, loading: true}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		m.loading = false
		m.summary = msg.summary
		m.err = msg.err

		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

var cardStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(mutedColor).
	Padding(0, 2).
	Width(24)

func card(title, value string) string {
	return cardStyle.Render(
		lipgloss.NewStyle().Foreground(mutedColor).Render(title) + "\n" +
			lipgloss.NewStyle().Bold(true).Render(value),
	)
}

func (m DashboardModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.loading {
		return style.Render("Loading overview...")
	}

	if m.err != nil {
		return style.Render(fmt.Sprintf("Error: %v", m.err))
	}

	o := m.summary.Overview

	lifetime := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Income", lipgloss.NewStyle().Foreground(incomeColor).Render(FormatAmount(o.TotalIncome))),
		card("Total Expenses", lipgloss.NewStyle().Foreground(expenseColor).Render(FormatAmount(o.TotalExpenses))),
		card("Balance", FormatBalance(o.Balance)),
	)

	monthly := lipgloss.JoinHorizontal(lipgloss.Top,
		card("This Month In", FormatAmount(o.MonthlyIncome)),
		card("This Month Out", FormatAmount(o.MonthlyExpenses)),
		card("Monthly Balance", FormatBalance(m.summary.MonthlyBalance)),
	)

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Transactions", fmt.Sprintf("%d", m.summary.TransactionCount)),
		card("Average Monthly", FormatAmount(m.summary.AverageMonthly)),
	)

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Overview"),
		lifetime,
		monthly,
		stats,
		"",
		lipgloss.NewStyle().Bold(true).Render("Recent Transactions"),
		m.recentView(),
	))
}

func (m DashboardModel) recentView() string {
	if len(m.summary.Recent) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("No transactions yet.")
	}

	var b strings.Builder

	for _, tx := range m.summary.Recent {
		amount := FormatSigned(tx.Type, tx.Amount)
		color := expenseColor
		if tx.Type == transaction.TypeIncome {
			color = incomeColor
		}

		fmt.Fprintf(&b, "%s  %-18s  %s  %s\n",
			tx.Date,
			tx.Category,
			lipgloss.NewStyle().Foreground(color).Width(12).Align(lipgloss.Right).Render(amount),
			tx.Description,
		)
	}

	return b.String()
}

type summaryMsg struct {
	summary *overview.Summary
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		s, err := m.overviewService.Summary(ctx)

		return summaryMsg{summary: s, err: err}
	}
}
