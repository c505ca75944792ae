package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/matching"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

type txState int

const (
	txStateBrowse txState = iota
	txStateForm
)

// typeFilters is the cycle used by the t key; nil means all types.
var typeFilters = []*transaction.Type{nil, new(transaction.TypeIncome), new(transaction.TypeExpense)}

// txForm holds the huh bindings. It lives behind a pointer so the bindings
// survive the model being copied on every Update.
type txForm struct {
	editing     *transaction.Transaction
	txType      transaction.Type
	amount      string
	category    string
	description string
	date        string
	tags        string
}

type TransactionsModel struct {
	CommonModel
	txService       *transaction.Service
	matchingService *matching.Service

	state txState
	table table.Model
	txs   []*transaction.Transaction
	form  *huh.Form
	input *txForm

	typeIdx   int
	timeframe Timeframe
	sortBy    transaction.SortKey

	loading bool
	status  string
}

func NewTransactionsModel(txSvc *transaction.Service, matchSvc *matching.Service) TransactionsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 8},
		{Title: "Category", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(selectedColor).
		Bold(false)
	t.SetStyles(s)

	return TransactionsModel{
		txService:       txSvc,
		matchingService: matchSvc,
		table:           t,
		sortBy:          transaction.SortByDate,
		loading:         true,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	if m.state == txStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | x: delete | t: type | d: dates | s: sort | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTxsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case txSavedMsg:
		m.state = txStateBrowse
		m.form = nil
		m.input = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = msg.status

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	switch m.state {
	case txStateBrowse:
		return m.updateBrowse(msg)
	case txStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "a":
			return m.openForm(nil)
		case "e":
			if tx := m.selected(); tx != nil {
				return m.openForm(tx)
			}

			return m, nil
		case "x":
			if tx := m.selected(); tx != nil {
				return m, m.deleteCmd(tx)
			}

			return m, nil
		case "t":
			m.typeIdx = (m.typeIdx + 1) % len(typeFilters)
			return m, m.loadTxsCmd()
		case "d":
			m.timeframe = m.timeframe.Next()
			return m, m.loadTxsCmd()
		case "s":
			if m.sortBy == transaction.SortByDate {
				m.sortBy = transaction.SortByAmount
			} else {
				m.sortBy = transaction.SortByDate
			}

			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

// openForm shows the add form, or the edit form when tx is set. The type of
// an existing transaction cannot change.
func (m TransactionsModel) openForm(tx *transaction.Transaction) (tea.Model, tea.Cmd) {
	in := &txForm{
		txType: transaction.TypeExpense,
		date:   time.Now().Format(time.DateOnly),
	}

	if tx != nil {
		in.editing = tx
		in.txType = tx.Type
		in.amount = tx.Amount.String()
		in.category = tx.Category
		in.description = tx.Description
		in.date = tx.Date.String()
		in.tags = strings.Join(tx.Tags, ", ")
	}

	fields := []huh.Field{}

	if tx == nil {
		fields = append(fields, huh.NewSelect[transaction.Type]().
			Title("Type").
			Options(
				huh.NewOption("Expense", transaction.TypeExpense),
				huh.NewOption("Income", transaction.TypeIncome),
			).
			Value(&in.txType))
	}

	fields = append(fields,
		huh.NewInput().
			Title("Amount").
			Value(&in.amount).
			Validate(validateAmount),

		huh.NewSelect[string]().
			Title("Category").
			OptionsFunc(func() []huh.Option[string] {
				return huh.NewOptions(transaction.CategoriesFor(in.txType)...)
			}, &in.txType).
			Value(&in.category),

		huh.NewInput().
			Title("Description").
			Value(&in.description).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("description cannot be empty")
				}

				return nil
			}),

		huh.NewInput().
			Title("Date (YYYY-MM-DD)").
			Value(&in.date).
			Validate(func(s string) error {
				_, err := transaction.Date(strings.TrimSpace(s)).Time()
				return err
			}),

		huh.NewInput().
			Title("Tags (comma separated, optional)").
			Value(&in.tags),
	)

	m.input = in
	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
	m.state = txStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("amount must be a number")
	}

	if !d.IsPositive() || !transaction.FitsMoneyScale(d) {
		return transaction.ErrInvalidAmount
	}

	return nil
}

func (m TransactionsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = txStateBrowse
		m.form = nil
		m.input = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd(m.input)
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	typeLabel := "All"
	if f := typeFilters[m.typeIdx]; f != nil {
		typeLabel = string(*f)
	}

	header := fmt.Sprintf(
		"[t] Type: %s | [d] Dates: %s | [s] Sort: %s | %d shown",
		activeStyle(typeLabel),
		activeStyle(m.timeframe.String()),
		activeStyle(string(m.sortBy)),
		len(m.txs),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == txStateForm && m.form != nil {
		title := "New Transaction"
		if m.input != nil && m.input.editing != nil {
			title = fmt.Sprintf("Edit %s", m.input.editing.Type)
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TransactionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			FormatSigned(tx.Type, tx.Amount),
			tx.Description,
		})
	}

	m.table.SetRows(rows)
}

func (m TransactionsModel) filter() transaction.ListFilter {
	start, end := m.timeframe.DateRange(time.Now())

	return transaction.ListFilter{
		Type:      typeFilters[m.typeIdx],
		SortBy:    m.sortBy,
		StartDate: start,
		EndDate:   end,
	}
}

func splitTags(s string) []string {
	var tags []string

	for tag := range strings.SplitSeq(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// Messages

type loadTxsMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return loadTxsMsg{txs: txs, err: err}
	}
}

type txSavedMsg struct {
	status string
	err    error
}

// saveCmd creates or updates a transaction. When an edit changes the
// category, the description is remembered as a pattern for that category.
func (m TransactionsModel) saveCmd(in *txForm) tea.Cmd {
	txSvc := m.txService
	matchSvc := m.matchingService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := decimal.NewFromString(strings.TrimSpace(in.amount))
		if err != nil {
			return txSavedMsg{err: err}
		}

		date := transaction.Date(strings.TrimSpace(in.date))
		tags := splitTags(in.tags)

		if in.editing == nil {
			_, err := txSvc.Create(ctx, transaction.CreateParams{
				Type:        in.txType,
				Amount:      amount,
				Category:    in.category,
				Description: in.description,
				Date:        date,
				Tags:        tags,
			})
			if err != nil {
				return txSavedMsg{err: err}
			}

			return txSavedMsg{status: "Transaction added."}
		}

		updated := *in.editing
		updated.Amount = amount
		updated.Category = in.category
		updated.Description = strings.TrimSpace(in.description)
		updated.Date = date
		updated.Tags = tags

		if err := txSvc.Update(ctx, &updated); err != nil {
			return txSavedMsg{err: err}
		}

		if updated.Category != in.editing.Category && matchSvc != nil {
			_ = matchSvc.Learn(ctx, updated.Description, updated.Category)
		}

		return txSavedMsg{status: "Transaction updated."}
	}
}

func (m TransactionsModel) deleteCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.txService.Delete(ctx, tx.ID); err != nil {
			return txSavedMsg{err: err}
		}

		return txSavedMsg{status: fmt.Sprintf("Deleted %q.", tx.Description)}
	}
}
