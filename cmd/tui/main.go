package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/campusfin/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/config"
	"github.com/MrJamesThe3rd/campusfin/internal/importer"
	"github.com/MrJamesThe3rd/campusfin/internal/logging"
	"github.com/MrJamesThe3rd/campusfin/internal/matching"
	"github.com/MrJamesThe3rd/campusfin/internal/overview"
	"github.com/MrJamesThe3rd/campusfin/internal/storage"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

type screen int

const (
	screenMenu screen = iota
	screenDashboard
	screenTransactions
	screenBudgets
	screenImport
)

type services struct {
	transactions *transaction.Service
	budgets      *budget.Service
	overview     *overview.Service
	matching     *matching.Service
	importer     *importer.Service
}

type model struct {
	appName string
	svc     services

	current screen
	active  view.View
	width   int
	height  int
}

// open builds a fresh view for s so every visit starts from current data.
func (m model) open(s screen) view.View {
	switch s {
	case screenDashboard:
		return view.NewDashboardModel(m.svc.overview)
	case screenTransactions:
		return view.NewTransactionsModel(m.svc.transactions, m.svc.matching)
	case screenBudgets:
		return view.NewBudgetsModel(m.svc.budgets)
	case screenImport:
		return view.NewImportModel(m.svc.transactions, m.svc.importer)
	}

	return nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.current == screenMenu {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.current = screenMenu
		m.active = nil

		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	next, cmd := m.active.Update(msg)
	if v, ok := next.(view.View); ok {
		m.active = v
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next := map[string]screen{
		"1": screenDashboard,
		"2": screenTransactions,
		"3": screenBudgets,
		"4": screenImport,
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}

	s, ok := next[msg.String()]
	if !ok {
		return m, nil
	}

	m.current = s
	m.active = m.open(s)

	cmds := []tea.Cmd{m.active.Init()}
	if m.width > 0 {
		size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
		cmds = append(cmds, func() tea.Msg { return size })
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.active == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Dashboard\n" +
				"2. Transactions\n" +
				"3. Budgets\n" +
				"4. Import CSV\n\n" +
				"q. Quit",
		)
	}

	title := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(m.active.Title())
	help := lipgloss.NewStyle().Faint(true).Padding(0, 1).Render(m.active.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, m.active.View(), help)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.Log.File, "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logging.NewWithWriter(logFile, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repos, err := storage.Open(ctx, cfg)

	cancel()

	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	txSvc := transaction.NewService(repos.Transactions)
	matchSvc := matching.NewService(repos.Mappings)

	m := model{
		appName: cfg.App.Name,
		svc: services{
			transactions: txSvc,
			budgets:      budget.NewService(repos.Budgets, txSvc, time.Now),
			overview:     overview.NewService(txSvc, time.Now),
			matching:     matchSvc,
			importer:     importer.NewService(matchSvc),
		},
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
