package tui

import (
	"context"
	"fmt"
	"strings"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/pricing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type AddModel struct {
	deps         Deps
	nameInput    textinput.Model
	priceInput   textinput.Model
	imageInput   textinput.Model
	focusedInput int
	saving       bool
	result       string
	err          error
	width        int
	height       int
}

type addCompleteMsg struct {
	id   int64
	name string
	err  error
}

func NewAddModel(deps Deps) *AddModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "Harina PAN"
	nameInput.Focus()

	priceInput := textinput.New()
	priceInput.Placeholder = "0.00"

	imageInput := textinput.New()
	imageInput.Placeholder = "/path/to/photo.jpg or https://..."

	return &AddModel{
		deps:       deps,
		nameInput:  nameInput,
		priceInput: priceInput,
		imageInput: imageInput,
	}
}

func (m *AddModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *AddModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case addCompleteMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = fmt.Sprintf("Added #%d %s", msg.id, msg.name)
		m.reset()
		return m, func() tea.Msg {
			return CatalogChangedMsg{Event: catalog.ChangeEvent{Source: "add", Inserted: 1}}
		}

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focusedInput = (m.focusedInput + 1) % 3
			m.updateInputFocus()
			return m, nil
		case "shift+tab", "up":
			m.focusedInput = (m.focusedInput + 2) % 3
			m.updateInputFocus()
			return m, nil
		case "enter":
			return m.save()
		}

		var cmd tea.Cmd
		switch m.focusedInput {
		case 0:
			m.nameInput, cmd = m.nameInput.Update(msg)
		case 1:
			m.priceInput, cmd = m.priceInput.Update(msg)
		case 2:
			m.imageInput, cmd = m.imageInput.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *AddModel) save() (tea.Model, tea.Cmd) {
	name, err := catalog.NormalizeName(m.nameInput.Value())
	if err != nil {
		m.err = fmt.Errorf("name is required")
		return m, nil
	}
	// An unusable price is stored as 0.
	price, _ := catalog.ParsePrice(m.priceInput.Value())
	image := strings.TrimSpace(m.imageInput.Value())

	m.saving = true
	m.result = ""
	store := m.deps.Store
	return m, func() tea.Msg {
		id, err := store.Create(context.Background(), name, price, image)
		return addCompleteMsg{id: id, name: name, err: err}
	}
}

func (m *AddModel) updateInputFocus() {
	inputs := []*textinput.Model{&m.nameInput, &m.priceInput, &m.imageInput}
	for i, input := range inputs {
		if i == m.focusedInput {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m *AddModel) reset() {
	m.nameInput.SetValue("")
	m.priceInput.SetValue("")
	m.imageInput.SetValue("")
	m.focusedInput = 0
	m.updateInputFocus()
}

func (m *AddModel) View() string {
	title := titleStyle.Render("➕ Add Product")

	preview := ""
	if price, ok := catalog.ParsePrice(m.priceInput.Value()); ok {
		preview = priceStyle.Render(pricing.FormatPrice(price))
	}

	form := formStyle.Render(
		labelStyle.Render("Name:") + "\n" + m.nameInput.View() + "\n\n" +
			labelStyle.Render("Price (USD):") + "\n" + m.priceInput.View() + "  " + preview + "\n\n" +
			labelStyle.Render("Photo:") + "\n" + m.imageInput.View(),
	)

	var status string
	switch {
	case m.saving:
		status = progressStyle.Render("Saving...")
	case m.err != nil:
		status = errorStyle.Render(fmt.Sprintf("❌ %v", m.err))
	case m.result != "":
		status = successStyle.Render("✅ " + m.result)
	}

	help := helpStyle.Render("Tab/Shift+Tab: Navigate • Enter: Save • Esc: Back to menu")

	return lipgloss.JoinVertical(lipgloss.Left, title, form, status, help)
}
