package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"inventoryKeeper/internal/backup"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ImportModel struct {
	deps            Deps
	state           ImportState
	backupFileInput textinput.Model
	spinner         spinner.Model
	outcome         ImportOutcome
	files           []string
	selectedFile    int
	width           int
	height          int
}

type ImportState int

const (
	ImportInputState ImportState = iota
	ImportFileSelectState
	ImportConfirmState
	ImportProgressState
	ImportResultState
)

type ImportOutcome struct {
	Result backup.ImportResult
	Error  error
}

type ImportCompleteMsg struct {
	Outcome ImportOutcome
}

func NewImportModel(deps Deps) *ImportModel {
	backupFileInput := textinput.New()
	backupFileInput.Placeholder = "backup.json or products.csv"
	backupFileInput.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = successStyle

	return &ImportModel{
		deps:            deps,
		state:           ImportInputState,
		backupFileInput: backupFileInput,
		spinner:         s,
	}
}

func (m *ImportModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ImportModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case ImportInputState:
			return m.updateInputState(msg)
		case ImportFileSelectState:
			return m.updateFileSelectState(msg)
		case ImportConfirmState:
			return m.updateConfirmState(msg)
		case ImportProgressState:
			return m, nil
		case ImportResultState:
			switch msg.String() {
			case "enter", " ", "esc":
				m.reset()
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.state != ImportProgressState {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ImportCompleteMsg:
		m.outcome = msg.Outcome
		m.state = ImportResultState
		return m, nil
	}
	return m, nil
}

func (m *ImportModel) updateInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+f":
		return m.browseFiles()
	case "enter":
		file := strings.TrimSpace(m.backupFileInput.Value())
		if file == "" {
			return m, nil
		}
		if err := backup.ValidateBackupFile(file); err != nil {
			return m, ShowError(err)
		}
		m.state = ImportConfirmState
		return m, nil
	}
	var cmd tea.Cmd
	m.backupFileInput, cmd = m.backupFileInput.Update(msg)
	return m, cmd
}

func (m *ImportModel) updateFileSelectState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedFile > 0 {
			m.selectedFile--
		}
	case "down", "j":
		if m.selectedFile < len(m.files)-1 {
			m.selectedFile++
		}
	case "enter":
		if len(m.files) > 0 {
			m.backupFileInput.SetValue(m.files[m.selectedFile])
			m.state = ImportInputState
		}
	case "esc":
		m.state = ImportInputState
	}
	return m, nil
}

func (m *ImportModel) updateConfirmState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		return m.startImport()
	case "n", "esc":
		m.state = ImportInputState
	}
	return m, nil
}

// browseFiles lists JSON and CSV files in the backup directory and the
// working directory, newest name first.
func (m *ImportModel) browseFiles() (tea.Model, tea.Cmd) {
	cwd, _ := os.Getwd()
	dirs := []string{cwd}
	if m.deps.BackupDir != "" && m.deps.BackupDir != cwd {
		dirs = append([]string{m.deps.BackupDir}, dirs...)
	}

	var files []string
	for _, dir := range dirs {
		for _, pattern := range []string{"*.json", "*.csv"} {
			matches, _ := filepath.Glob(filepath.Join(dir, pattern))
			sort.Sort(sort.Reverse(sort.StringSlice(matches)))
			for _, file := range matches {
				if rel, err := filepath.Rel(cwd, file); err == nil && !strings.HasPrefix(rel, "..") {
					file = rel
				}
				files = append(files, file)
			}
		}
	}

	m.files = files
	m.selectedFile = 0
	m.state = ImportFileSelectState
	return m, nil
}

func (m *ImportModel) startImport() (tea.Model, tea.Cmd) {
	m.state = ImportProgressState
	return m, tea.Batch(m.spinner.Tick, m.performImport())
}

func (m *ImportModel) performImport() tea.Cmd {
	svc := m.deps.Backup
	src := strings.TrimSpace(m.backupFileInput.Value())
	assetsDir := m.deps.AssetsDir
	return func() tea.Msg {
		res, err := svc.Import(context.Background(), src, assetsDir)
		return ImportCompleteMsg{Outcome: ImportOutcome{Result: res, Error: err}}
	}
}

func (m *ImportModel) reset() {
	m.state = ImportInputState
	m.outcome = ImportOutcome{}
	m.backupFileInput.Focus()
}

func (m *ImportModel) View() string {
	switch m.state {
	case ImportInputState:
		return m.renderInputForm()
	case ImportFileSelectState:
		return m.renderFileSelector()
	case ImportConfirmState:
		return m.renderConfirmation()
	case ImportProgressState:
		return m.renderProgress()
	case ImportResultState:
		return m.renderResult()
	}
	return ""
}

func (m *ImportModel) renderInputForm() string {
	title := titleStyle.Render("🔄 Import Backup")

	form := formStyle.Render(
		labelStyle.Render("Backup File (JSON or CSV):") + "\n" + m.backupFileInput.View(),
	)

	help := helpStyle.Render("Ctrl+F: Browse files • Enter: Continue • Esc: Back to menu")

	return lipgloss.JoinVertical(lipgloss.Left, title, form, help)
}

func (m *ImportModel) renderFileSelector() string {
	title := titleStyle.Render("📁 Select Backup File")

	if len(m.files) == 0 {
		content := warningStyle.Render("No backup files (*.json, *.csv) found")
		help := helpStyle.Render("Esc: Back to form")
		return lipgloss.JoinVertical(lipgloss.Left, title, content, help)
	}

	var fileList string
	for i, file := range m.files {
		cursor := " "
		style := menuItemStyle
		if i == m.selectedFile {
			cursor = ">"
			style = selectedMenuItemStyle
		}
		fileList += fmt.Sprintf("%s %s\n", cursor, style.Render(file))
	}

	help := helpStyle.Render("↑/↓: Navigate • Enter: Select • Esc: Cancel")

	return lipgloss.JoinVertical(lipgloss.Left, title, fileList, help)
}

func (m *ImportModel) renderConfirmation() string {
	title := titleStyle.Render("⚠️  Confirm Import")

	warningText := warningStyle.Render("Products with the same name get the backup price and photo. Nothing is deleted.")

	details := fmt.Sprintf(
		"📋 Import Details:\n"+
			"   File: %s\n"+
			"   Format: %s\n"+
			"   Photos restored to: %s",
		m.backupFileInput.Value(),
		strings.ToUpper(string(backup.DetectFormat(m.backupFileInput.Value()))),
		m.deps.AssetsDir,
	)

	help := helpStyle.Render("Y/Enter: Confirm • N/Esc: Cancel")

	return lipgloss.JoinVertical(lipgloss.Left, title, warningText, details, help)
}

func (m *ImportModel) renderProgress() string {
	title := titleStyle.Render("🔄 Importing...")
	content := progressStyle.Render(m.spinner.View() + " Reconciling records")
	help := helpStyle.Render("Please wait while the backup is being imported...")

	return lipgloss.JoinVertical(lipgloss.Left, title, content, help)
}

func (m *ImportModel) renderResult() string {
	title := titleStyle.Render("🔄 Import Complete")

	if m.outcome.Error != nil {
		status := errorStyle.Render(fmt.Sprintf("❌ Import failed: %v", m.outcome.Error))
		help := helpStyle.Render("Enter: Import another file • Esc: Back")
		return lipgloss.JoinVertical(lipgloss.Left, title, status, help)
	}

	res := m.outcome.Result
	status := successStyle.Render("✅ " + res.Summary())
	stats := fmt.Sprintf(
		"📊 Import Information:\n"+
			"   Records: %d\n"+
			"   New: %d\n"+
			"   Updated: %d\n"+
			"   Skipped: %d\n"+
			"   Photos restored: %d",
		res.Total, res.Inserted, res.Updated, res.Skipped, res.PhotosRestored,
	)
	if res.PhotosFailed > 0 {
		stats += "\n" + warningStyle.Render(fmt.Sprintf("   Photos not restored: %d", res.PhotosFailed))
	}

	help := helpStyle.Render("Enter: Import another file • Esc: Back")

	return lipgloss.JoinVertical(lipgloss.Left, title, status, stats, help)
}
