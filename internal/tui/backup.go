package tui

import (
	"context"
	"fmt"
	"strings"

	"inventoryKeeper/internal/backup"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ExportModel struct {
	deps            Deps
	state           ExportState
	outputInput     textinput.Model
	formatSelection int
	formats         []backup.Format
	spinner         spinner.Model
	result          ExportOutcome
	width           int
	height          int
}

type ExportState int

const (
	ExportInputState ExportState = iota
	ExportFormatSelectState
	ExportProgressState
	ExportResultState
)

type ExportOutcome struct {
	Result backup.ExportResult
	Error  error
}

type ExportCompleteMsg struct {
	Outcome ExportOutcome
}

func NewExportModel(deps Deps) *ExportModel {
	outputInput := textinput.New()
	outputInput.Placeholder = "backups/ or backup.json"
	outputInput.SetValue(deps.BackupDir)
	outputInput.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = successStyle

	return &ExportModel{
		deps:        deps,
		state:       ExportInputState,
		outputInput: outputInput,
		formats:     []backup.Format{backup.FormatJSON, backup.FormatCSV},
		spinner:     s,
	}
}

func (m *ExportModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ExportModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case ExportInputState:
			return m.updateInputState(msg)
		case ExportFormatSelectState:
			return m.updateFormatSelectState(msg)
		case ExportProgressState:
			return m, nil
		case ExportResultState:
			switch msg.String() {
			case "enter", " ", "esc":
				m.reset()
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.state != ExportProgressState {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ExportCompleteMsg:
		m.result = msg.Outcome
		m.state = ExportResultState
		return m, nil
	}
	return m, nil
}

func (m *ExportModel) updateInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if strings.TrimSpace(m.outputInput.Value()) != "" {
			// Preselect the format matching the typed extension.
			if backup.DetectFormat(m.outputInput.Value()) == backup.FormatCSV {
				m.formatSelection = 1
			}
			m.state = ExportFormatSelectState
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.outputInput, cmd = m.outputInput.Update(msg)
	return m, cmd
}

func (m *ExportModel) updateFormatSelectState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.formatSelection > 0 {
			m.formatSelection--
		}
	case "down", "j":
		if m.formatSelection < len(m.formats)-1 {
			m.formatSelection++
		}
	case "enter":
		return m.startExport()
	case "esc":
		m.state = ExportInputState
	}
	return m, nil
}

func (m *ExportModel) startExport() (tea.Model, tea.Cmd) {
	m.state = ExportProgressState
	return m, tea.Batch(m.spinner.Tick, m.performExport())
}

func (m *ExportModel) performExport() tea.Cmd {
	svc := m.deps.Backup
	dest := strings.TrimSpace(m.outputInput.Value())
	format := m.formats[m.formatSelection]
	return func() tea.Msg {
		res, err := svc.Export(context.Background(), dest, format)
		return ExportCompleteMsg{Outcome: ExportOutcome{Result: res, Error: err}}
	}
}

func (m *ExportModel) reset() {
	m.state = ExportInputState
	m.result = ExportOutcome{}
	m.outputInput.Focus()
}

func (m *ExportModel) View() string {
	switch m.state {
	case ExportInputState:
		return m.renderInputForm()
	case ExportFormatSelectState:
		return m.renderFormatSelector()
	case ExportProgressState:
		return m.renderProgress()
	case ExportResultState:
		return m.renderResult()
	}
	return ""
}

func (m *ExportModel) renderInputForm() string {
	title := titleStyle.Render("💾 Export Backup")

	form := formStyle.Render(
		labelStyle.Render("Output file or directory:") + "\n" + m.outputInput.View() + "\n\n" +
			priceStyle.Render("A directory gets a timestamped backup_YYYYMMDD_HHMMSS file."),
	)

	help := helpStyle.Render("Enter: Continue • Esc: Back to menu")

	return lipgloss.JoinVertical(lipgloss.Left, title, form, help)
}

func (m *ExportModel) renderFormatSelector() string {
	title := titleStyle.Render("📄 Select Backup Format")

	var formatList string
	for i, format := range m.formats {
		cursor := " "
		style := menuItemStyle
		if i == m.formatSelection {
			cursor = ">"
			style = selectedMenuItemStyle
		}
		formatList += fmt.Sprintf("%s %s\n", cursor, style.Render(strings.ToUpper(string(format))))
	}

	help := helpStyle.Render("↑/↓: Navigate • Enter: Start export • Esc: Back")

	return lipgloss.JoinVertical(lipgloss.Left, title, formatList, help)
}

func (m *ExportModel) renderProgress() string {
	title := titleStyle.Render("💾 Exporting...")
	content := progressStyle.Render(m.spinner.View() + " Encoding photos and writing the backup")
	help := helpStyle.Render("Please wait while the backup is being written...")

	return lipgloss.JoinVertical(lipgloss.Left, title, content, help)
}

func (m *ExportModel) renderResult() string {
	title := titleStyle.Render("💾 Export Complete")

	if m.result.Error != nil {
		status := errorStyle.Render(fmt.Sprintf("❌ Export failed: %v", m.result.Error))
		help := helpStyle.Render("Enter: Try again • Esc: Back to menu")
		return lipgloss.JoinVertical(lipgloss.Left, title, status, help)
	}

	res := m.result.Result
	status := successStyle.Render("✅ Export completed successfully!")
	stats := fmt.Sprintf(
		"📊 Export Information:\n"+
			"   Output file: %s\n"+
			"   Format: %s\n"+
			"   Products: %d",
		res.Path,
		strings.ToUpper(string(m.formats[m.formatSelection])),
		res.Exported,
	)
	if res.WithoutPhoto > 0 {
		stats += "\n" + warningStyle.Render(fmt.Sprintf("   %d photos could not be read and were left out", res.WithoutPhoto))
	}

	help := helpStyle.Render("Enter: Create another backup • Esc: Back to menu")

	return lipgloss.JoinVertical(lipgloss.Left, title, status, stats, help)
}
