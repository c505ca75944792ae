package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

const barWidth = 30

type budgetForm struct {
	category string
	limit    string
	period   budget.Period
}

type BudgetsModel struct {
	CommonModel
	budgetService *budget.Service

	evaluations []budget.Evaluation
	cursor      int

	form  *huh.Form
	input *budgetForm

	loading bool
	status  string
}

func NewBudgetsModel(svc *budget.Service) BudgetsModel {
	return BudgetsModel{
		budgetService: svc,
		loading:       true,
	}
}

func (m BudgetsModel) Title() string { return "Budgets" }

func (m BudgetsModel) ShortHelp() string {
	if m.form != nil {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | ↑/↓: move | a: add | x: delete | r: refresh"
}

func (m BudgetsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BudgetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case evaluationsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.evaluations = msg.evaluations
		m.cursor = min(m.cursor, max(len(m.evaluations)-1, 0))

		return m, nil

	case budgetSavedMsg:
		m.form = nil
		m.input = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.evaluations)-1 {
			m.cursor++
		}
	case "r":
		m.loading = true
		return m, m.loadCmd()
	case "a":
		return m.openForm()
	case "x":
		if m.cursor < len(m.evaluations) {
			return m, m.deleteCmd(m.evaluations[m.cursor].Budget)
		}
	}

	return m, nil
}

func (m BudgetsModel) openForm() (tea.Model, tea.Cmd) {
	in := &budgetForm{period: budget.PeriodMonthly}

	m.input = in
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(transaction.ExpenseCategories...)...).
				Value(&in.category),

			huh.NewInput().
				Title("Limit").
				Value(&in.limit).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return errors.New("limit must be a number")
					}

					if !d.IsPositive() || !transaction.FitsMoneyScale(d) {
						return budget.ErrInvalidLimit
					}

					return nil
				}),

			huh.NewSelect[budget.Period]().
				Title("Period").
				Options(
					huh.NewOption("Weekly", budget.PeriodWeekly),
					huh.NewOption("Monthly", budget.PeriodMonthly),
					huh.NewOption("Yearly", budget.PeriodYearly),
				).
				Value(&in.period),
		),
	).WithWidth(50).WithShowHelp(false)

	return m, m.form.Init()
}

func (m BudgetsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.input = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd(m.input)
}

func (m BudgetsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Evaluating budgets...")
	}

	if m.form != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render("New Budget\n\n" + m.form.View())
	}

	var b strings.Builder

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n")
	}

	if len(m.evaluations) == 0 {
		b.WriteString("No budgets yet. Press 'a' to add one.")
		return lipgloss.NewStyle().Padding(1).Render(b.String())
	}

	for i, ev := range m.evaluations {
		cursor := "  "
		if i == m.cursor {
			cursor = activeStyle("> ")
		}

		b.WriteString(cursor + renderEvaluation(ev) + "\n\n")
	}

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

func renderEvaluation(ev budget.Evaluation) string {
	if ev.Budget == nil {
		return "unknown budget"
	}

	title := fmt.Sprintf("%s (%s)", ev.Budget.Category, ev.Budget.Period)

	if ev.Err != nil {
		return title + "\n    " + lipgloss.NewStyle().Foreground(expenseColor).Render("cannot evaluate: "+ev.Err.Error())
	}

	color := statusColor(ev.Status)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	pct, _ := ev.Progress.Div(decimal.NewFromInt(100)).Float64()

	line := fmt.Sprintf("    %s %s / %s  %s%%",
		bar.ViewAs(pct),
		FormatAmount(ev.Spent),
		FormatAmount(ev.Budget.Limit),
		ev.Percentage.Round(0).String(),
	)

	detail := fmt.Sprintf("    %s left", FormatAmount(ev.Remaining))
	if ev.Status == budget.StatusExceeded {
		detail = fmt.Sprintf("    over by %s", FormatAmount(ev.Overage))
	}

	return title + "\n" + line + "\n" + lipgloss.NewStyle().Foreground(color).Render(detail)
}

// Messages

type evaluationsMsg struct {
	evaluations []budget.Evaluation
	err         error
}

func (m BudgetsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		evs, err := m.budgetService.Evaluate(ctx)

		return evaluationsMsg{evaluations: evs, err: err}
	}
}

type budgetSavedMsg struct {
	status string
	err    error
}

func (m BudgetsModel) createCmd(in *budgetForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		limit, err := decimal.NewFromString(strings.TrimSpace(in.limit))
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		b, err := m.budgetService.Create(ctx, budget.CreateParams{
			Category: in.category,
			Limit:    limit,
			Period:   in.period,
		})
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		return budgetSavedMsg{status: fmt.Sprintf("Budget for %s created.", b.Category)}
	}
}

func (m BudgetsModel) deleteCmd(b *budget.Budget) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.budgetService.Delete(ctx, b.ID); err != nil {
			return budgetSavedMsg{err: err}
		}

		return budgetSavedMsg{status: fmt.Sprintf("Budget for %s deleted.", b.Category)}
	}
}
