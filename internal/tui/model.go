package tui

import (
	"fmt"

	"inventoryKeeper/internal/backup"
	"inventoryKeeper/internal/catalog"

	tea "github.com/charmbracelet/bubbletea"
)

type Screen int

const (
	MenuScreen Screen = iota
	CatalogScreen
	AddScreen
	ExportScreen
	ImportScreen
)

// Deps carries everything the screens need from the host process.
type Deps struct {
	Store        catalog.Store
	Backup       *backup.Service
	AssetsDir    string
	BackupDir    string
	ExchangeRate string
	LocalLabel   string
}

type Model struct {
	currentScreen Screen
	menuModel     *MenuModel
	catalogModel  *CatalogModel
	addModel      *AddModel
	exportModel   *ExportModel
	importModel   *ImportModel
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(deps Deps) Model {
	return Model{
		currentScreen: MenuScreen,
		menuModel:     NewMenuModel(),
		catalogModel:  NewCatalogModel(deps),
		addModel:      NewAddModel(deps),
		exportModel:   NewExportModel(deps),
		importModel:   NewImportModel(deps),
	}
}

func (m Model) Init() tea.Cmd {
	return m.catalogModel.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menuModel.SetSize(msg.Width, msg.Height)
		m.catalogModel.SetSize(msg.Width, msg.Height)
		m.addModel.SetSize(msg.Width, msg.Height)
		m.exportModel.SetSize(msg.Width, msg.Height)
		m.importModel.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.currentScreen == MenuScreen {
				m.quitting = true
				return m, tea.Quit
			}
		case "esc":
			if m.currentScreen != MenuScreen && !m.screenHandlesEsc() {
				m.currentScreen = MenuScreen
				m.err = nil
				return m, nil
			}
		}

	case ScreenChangeMsg:
		m.currentScreen = msg.Screen
		m.err = nil
		return m, m.enterScreen(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case CatalogChangedMsg, productsLoadedMsg:
		// The catalog view stays current whichever screen is showing.
		newCatalogModel, cmd := m.catalogModel.Update(msg)
		m.catalogModel = newCatalogModel.(*CatalogModel)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentScreen {
	case MenuScreen:
		newMenuModel, c := m.menuModel.Update(msg)
		m.menuModel = newMenuModel.(*MenuModel)
		cmd = c
	case CatalogScreen:
		newCatalogModel, c := m.catalogModel.Update(msg)
		m.catalogModel = newCatalogModel.(*CatalogModel)
		cmd = c
	case AddScreen:
		newAddModel, c := m.addModel.Update(msg)
		m.addModel = newAddModel.(*AddModel)
		cmd = c
	case ExportScreen:
		newExportModel, c := m.exportModel.Update(msg)
		m.exportModel = newExportModel.(*ExportModel)
		cmd = c
	case ImportScreen:
		newImportModel, c := m.importModel.Update(msg)
		m.importModel = newImportModel.(*ImportModel)
		cmd = c
	}
	return m, cmd
}

// screenHandlesEsc reports whether the active screen is in a sub-state that
// uses esc to step back itself.
func (m Model) screenHandlesEsc() bool {
	switch m.currentScreen {
	case ExportScreen:
		return m.exportModel.state != ExportInputState
	case ImportScreen:
		return m.importModel.state != ImportInputState
	case CatalogScreen:
		return m.catalogModel.confirmDelete || m.catalogModel.editingQty
	}
	return false
}

func (m Model) enterScreen(screen Screen) tea.Cmd {
	switch screen {
	case CatalogScreen:
		return m.catalogModel.Focus()
	case AddScreen:
		return m.addModel.Init()
	case ExportScreen:
		return m.exportModel.Init()
	case ImportScreen:
		return m.importModel.Init()
	}
	return nil
}

func (m Model) View() string {
	if m.quitting {
		return "Bye! 👋\n"
	}

	var content string
	switch m.currentScreen {
	case MenuScreen:
		content = m.menuModel.View()
	case CatalogScreen:
		content = m.catalogModel.View()
	case AddScreen:
		content = m.addModel.View()
	case ExportScreen:
		content = m.exportModel.View()
	case ImportScreen:
		content = m.importModel.View()
	}

	if m.err != nil {
		content += errorStyle.Copy().Margin(1, 0).Render(fmt.Sprintf("Error: %v", m.err))
	}

	return content
}

type ScreenChangeMsg struct {
	Screen Screen
}

type ErrorMsg struct {
	Err error
}

// CatalogChangedMsg is delivered when a batch or single edit changed the
// catalog, whichever process component made the change.
type CatalogChangedMsg struct {
	Event catalog.ChangeEvent
}

func ChangeScreen(screen Screen) tea.Cmd {
	return func() tea.Msg {
		return ScreenChangeMsg{Screen: screen}
	}
}

func ShowError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}
