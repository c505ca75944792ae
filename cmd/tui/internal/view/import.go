package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/campusfin/internal/importer"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	stepFormat importStep = iota
	stepFile
	stepRunning
	stepConflicts
	stepDone
)

type ImportModel struct {
	CommonModel
	txService     *transaction.Service
	importService *importer.Service

	step         importStep
	filePicker   filepicker.Model
	format       importer.Format
	formatCursor int

	fresh     []transaction.CreateParams
	conflicts []transaction.Conflict
	keep      map[int]bool
	review    list.Model

	status string
	failed bool
}

func NewImportModel(txSvc *transaction.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		txService:     txSvc,
		importService: impSvc,
		filePicker:    fp,
		keep:          make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import CSV" }

func (m ImportModel) ShortHelp() string {
	if m.step == stepConflicts {
		return "Space: keep/skip | a: keep all | n: skip all | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return nil
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.back()
		}

		switch m.step {
		case stepFormat:
			return m.updateFormat(msg)
		case stepConflicts:
			return m.updateConflicts(msg)
		}

	case importBatchMsg:
		return m.handleBatch(msg)

	case importConfirmedMsg:
		m.step = stepDone
		if msg.err != nil {
			m.failed = true
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d transactions.", msg.count)

		return m, nil
	}

	if m.step != stepFile {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if ok, path := m.filePicker.DidSelectFile(msg); ok {
		m.step = stepRunning
		m.status = fmt.Sprintf("Reading %s...", path)

		return m, m.importCmd(m.format, path)
	}

	return m, cmd
}

func (m ImportModel) handleBatch(msg importBatchMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.step = stepDone
		m.failed = true
		m.status = fmt.Sprintf("Error: %v", msg.err)

		return m, nil
	}

	if len(msg.result.Conflicts) == 0 {
		m.step = stepDone
		m.status = fmt.Sprintf("Imported %d transactions.", len(msg.result.Imported))

		return m, nil
	}

	m.fresh = msg.result.New
	m.conflicts = msg.result.Conflicts
	m.keep = make(map[int]bool)
	m.step = stepConflicts

	items := make([]list.Item, len(m.conflicts))
	for i, c := range m.conflicts {
		items[i] = conflictItem{conflict: c, index: i}
	}

	m.review = list.New(items, conflictDelegate{keep: m.keep}, 80, 20)
	m.review.Title = fmt.Sprintf("%d new, %d possible duplicates", len(m.fresh), len(m.conflicts))
	m.review.SetShowStatusBar(false)
	m.review.SetFilteringEnabled(false)
	m.review.SetShowHelp(false)

	return m, nil
}

// back steps out of the current screen. Leaving the conflict review discards
// the pending batch; nothing was written yet.
func (m ImportModel) back() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepFile, stepDone:
		m.step = stepFormat
		m.status = ""
		m.failed = false

		return m, nil
	case stepConflicts:
		m.step = stepFormat
		m.fresh = nil
		m.conflicts = nil
		m.keep = make(map[int]bool)

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateFormat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.formatCursor > 0 {
			m.formatCursor--
		}
	case "down", "j":
		if m.formatCursor < len(importer.Formats)-1 {
			m.formatCursor++
		}
	case "enter":
		m.format = importer.Formats[m.formatCursor]
		m.step = stepFile

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.review.Index()
		m.keep[idx] = !m.keep[idx]

		return m, nil
	case "a", "n":
		for i := range m.conflicts {
			m.keep[i] = msg.String() == "a"
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.review, cmd = m.review.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.step {
	case stepFormat:
		s := "CSV layout:\n\n"

		for i, f := range importer.Formats {
			cursor := "  "
			if i == m.formatCursor {
				cursor = activeStyle("> ")
			}

			s += cursor + string(f) + "\n"
		}

		s += "\nThe generic layout detects typed, signed and debit/credit columns."

		return lipgloss.NewStyle().Padding(2).Render(s)
	case stepFile:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select file to import (%s):\n\n%s", m.format, m.filePicker.View()),
		)
	case stepRunning:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case stepConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.review.View())
	case stepDone:
		color := incomeColor
		if m.failed {
			color = expenseColor
		}

		return lipgloss.NewStyle().Padding(2).Render(
			lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(Esc to go back)",
		)
	}

	return ""
}

// Messages

type importBatchMsg struct {
	result *transaction.ImportResult
	err    error
}

type importConfirmedMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(format importer.Format, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importBatchMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		params, err := m.importService.Import(ctx, format, f)
		if err != nil {
			return importBatchMsg{err: err}
		}

		result, err := m.txService.ImportBatch(ctx, params)
		if err != nil {
			return importBatchMsg{err: err}
		}

		return importBatchMsg{result: result}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	params := append([]transaction.CreateParams{}, m.fresh...)
	for i, c := range m.conflicts {
		if m.keep[i] {
			params = append(params, c.Incoming)
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := m.txService.CreateBatch(ctx, params)
		if err != nil {
			return importConfirmedMsg{err: err}
		}

		return importConfirmedMsg{count: len(txs)}
	}
}

type conflictItem struct {
	conflict transaction.Conflict
	index    int
}

func (i conflictItem) Title() string       { return i.conflict.Incoming.Description }
func (i conflictItem) Description() string { return string(i.conflict.Incoming.Date) }
func (i conflictItem) FilterValue() string { return i.conflict.Incoming.Description }

// conflictDelegate shares the keep map with the model; maps are references so
// toggles show up without rebuilding the list.
type conflictDelegate struct {
	keep map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	box := "[skip]"
	if d.keep[item.index] {
		box = "[keep]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = activeStyle("> ")
	}

	in := item.conflict.Incoming
	ex := item.conflict.Existing

	incoming := fmt.Sprintf("%s%s %s  %s  %s  %s",
		cursor, box, in.Date, FormatSigned(in.Type, in.Amount), in.Category, in.Description)

	existing := lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf(
		"         already stored: %s  %s  %s  %s",
		ex.Date, FormatSigned(ex.Type, ex.Amount), ex.Category, ex.Description))

	fmt.Fprintf(w, "%s\n%s\n", incoming, existing)
}
