package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"inventoryKeeper/internal/assets"
	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"
	"inventoryKeeper/internal/pricing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type catalogFocus int

const (
	focusSearch catalogFocus = iota
	focusRate
	focusList
)

// CatalogModel lists products with a live search, a per-line quantity and
// totals converted at the exchange rate typed in the rate field.
type CatalogModel struct {
	deps          Deps
	searchInput   textinput.Model
	rateInput     textinput.Model
	qtyInput      textinput.Model
	focus         catalogFocus
	products      []models.Product
	quantities    map[int64]decimal.Decimal
	cursor        int
	offset        int
	editingQty    bool
	confirmDelete bool
	status        string
	width         int
	height        int
}

type productsLoadedMsg struct {
	filter   string
	products []models.Product
	err      error
}

func NewCatalogModel(deps Deps) *CatalogModel {
	searchInput := textinput.New()
	searchInput.Placeholder = "search by name"
	searchInput.Focus()

	rateInput := textinput.New()
	rateInput.Placeholder = "40"
	rateInput.SetValue(deps.ExchangeRate)
	rateInput.CharLimit = 16

	qtyInput := textinput.New()
	qtyInput.Placeholder = "1.5"
	qtyInput.CharLimit = 12

	if deps.LocalLabel == "" {
		deps.LocalLabel = "Bs"
	}

	return &CatalogModel{
		deps:        deps,
		searchInput: searchInput,
		rateInput:   rateInput,
		qtyInput:    qtyInput,
		quantities:  make(map[int64]decimal.Decimal),
	}
}

func (m *CatalogModel) Init() tea.Cmd {
	return m.load()
}

// Focus is called when the screen becomes active.
func (m *CatalogModel) Focus() tea.Cmd {
	m.focus = focusSearch
	m.updateInputFocus()
	return tea.Batch(textinput.Blink, m.load())
}

func (m *CatalogModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *CatalogModel) filter() string {
	return m.searchInput.Value()
}

func (m *CatalogModel) load() tea.Cmd {
	store := m.deps.Store
	filter := m.filter()
	return func() tea.Msg {
		products, err := store.List(context.Background(), filter)
		return productsLoadedMsg{filter: filter, products: products, err: err}
	}
}

func (m *CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case productsLoadedMsg:
		if msg.filter != m.filter() {
			// A newer search is in flight.
			return m, nil
		}
		if msg.err != nil {
			return m, ShowError(msg.err)
		}
		m.setProducts(msg.products)
		return m, nil

	case CatalogChangedMsg:
		m.status = describeChange(msg.Event)
		return m, m.load()

	case tea.KeyMsg:
		if m.confirmDelete {
			return m.updateConfirmDelete(msg)
		}
		if m.editingQty {
			return m.updateQtyEntry(msg)
		}
		switch msg.String() {
		case "tab":
			m.focus = (m.focus + 1) % 3
			m.updateInputFocus()
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + 2) % 3
			m.updateInputFocus()
			return m, nil
		}

		switch m.focus {
		case focusSearch:
			before := m.filter()
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			if m.filter() != before {
				return m, tea.Batch(cmd, m.load())
			}
			return m, cmd
		case focusRate:
			var cmd tea.Cmd
			m.rateInput, cmd = m.rateInput.Update(msg)
			return m, cmd
		case focusList:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *CatalogModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
	case "+", "=", "right", "l":
		if p, ok := m.selected(); ok {
			m.setQuantity(p.ID, m.quantities[p.ID].Add(decimal.NewFromInt(1)))
		}
	case "-", "left", "h":
		if p, ok := m.selected(); ok {
			m.setQuantity(p.ID, m.quantities[p.ID].Sub(decimal.NewFromInt(1)))
		}
	case "0":
		if p, ok := m.selected(); ok {
			delete(m.quantities, p.ID)
		}
	case "e", "enter":
		if p, ok := m.selected(); ok {
			m.editingQty = true
			m.qtyInput.SetValue(m.quantities[p.ID].String())
			m.qtyInput.CursorEnd()
			m.qtyInput.Focus()
			return m, textinput.Blink
		}
	case "d", "delete":
		if _, ok := m.selected(); ok {
			m.confirmDelete = true
		}
	case "r":
		return m, m.load()
	}
	m.scrollToCursor()
	return m, nil
}

// updateQtyEntry edits the selected line's quantity as text, so fractional
// amounts such as 1.5 kg can be entered.
func (m *CatalogModel) updateQtyEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if p, ok := m.selected(); ok {
			m.setQuantity(p.ID, pricing.ParseAmount(m.qtyInput.Value()))
		}
		m.closeQtyEntry()
		return m, nil
	case "esc":
		m.closeQtyEntry()
		return m, nil
	}
	var cmd tea.Cmd
	m.qtyInput, cmd = m.qtyInput.Update(msg)
	return m, cmd
}

func (m *CatalogModel) closeQtyEntry() {
	m.editingQty = false
	m.qtyInput.Blur()
	m.qtyInput.SetValue("")
}

// setQuantity stores q for id. Quantities never go below zero and a zero
// quantity is not kept.
func (m *CatalogModel) setQuantity(id int64, q decimal.Decimal) {
	if !q.IsPositive() {
		delete(m.quantities, id)
		return
	}
	m.quantities[id] = q
}

func (m *CatalogModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirmDelete = false
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.deleteProduct(p.ID)
	case "n", "esc":
		m.confirmDelete = false
	}
	return m, nil
}

func (m *CatalogModel) deleteProduct(id int64) tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		if err := store.Delete(context.Background(), id); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to delete product %d: %w", id, err)}
		}
		return CatalogChangedMsg{Event: catalog.ChangeEvent{Source: "delete", Deleted: 1}}
	}
}

func (m *CatalogModel) setProducts(products []models.Product) {
	m.products = products
	present := make(map[int64]bool, len(products))
	for _, p := range products {
		present[p.ID] = true
	}
	// Quantities of products hidden by the filter are kept; deleted ids are
	// only dropped on an unfiltered load.
	if m.filter() == "" {
		for id := range m.quantities {
			if !present[id] {
				delete(m.quantities, id)
			}
		}
	}
	if m.cursor >= len(products) {
		m.cursor = len(products) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

func (m *CatalogModel) selected() (models.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.products) {
		return models.Product{}, false
	}
	return m.products[m.cursor], true
}

// Totals returns the line totals for p at the current rate.
func (m *CatalogModel) Totals(p models.Product) pricing.Totals {
	return pricing.ComputeTotals(m.quantities[p.ID], p.Price, m.rateInput.Value())
}

func (m *CatalogModel) visibleRows() int {
	if m.height <= 0 {
		return len(m.products)
	}
	rows := (m.height - 12) / 2
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m *CatalogModel) scrollToCursor() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *CatalogModel) updateInputFocus() {
	m.searchInput.Blur()
	m.rateInput.Blur()
	switch m.focus {
	case focusSearch:
		m.searchInput.Focus()
	case focusRate:
		m.rateInput.Focus()
	}
}

func (m *CatalogModel) View() string {
	title := titleStyle.Render("📦 Catalog")

	inputs := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Search: ")+m.searchInput.View(),
		"   ",
		labelStyle.Render(fmt.Sprintf("Rate (%s/USD): ", m.deps.LocalLabel))+m.rateInput.View(),
	)

	var list strings.Builder
	if len(m.products) == 0 {
		list.WriteString(warningStyle.Render("No products found"))
	}
	end := m.offset + m.visibleRows()
	if end > len(m.products) {
		end = len(m.products)
	}
	for i := m.offset; i < end; i++ {
		list.WriteString(m.renderProduct(i))
		list.WriteString("\n")
	}

	var footer string
	switch {
	case m.confirmDelete:
		p, _ := m.selected()
		footer = warningStyle.Render(fmt.Sprintf("Delete %q? (y/N)", p.Name))
	case m.editingQty:
		p, _ := m.selected()
		footer = labelStyle.Render(fmt.Sprintf("Quantity of %s: ", p.Name)) + m.qtyInput.View()
	case m.status != "":
		footer = successStyle.Render(m.status)
	}

	help := helpStyle.Render("Tab: Switch field • ↑/↓: Move • +/-: Quantity • e: Type quantity • 0: Reset • d: Delete • r: Reload • Esc: Menu")

	return lipgloss.JoinVertical(lipgloss.Left, title, inputs, "", list.String(), footer, help)
}

func (m *CatalogModel) renderProduct(i int) string {
	p := m.products[i]
	cursor := " "
	name := menuItemStyle.Render(p.Name)
	if i == m.cursor && m.focus == focusList {
		cursor = ">"
		name = selectedMenuItemStyle.Render(p.Name)
	}

	totals := m.Totals(p)
	totalStyle := neutralTotalStyle
	if totals.Active() {
		totalStyle = activeTotalStyle
	}

	line := fmt.Sprintf("%s %s %s", cursor, name, priceStyle.Render(pricing.FormatPrice(p.Price)))
	if marker := photoMarker(p.ImageRef); marker != "" {
		line += " " + placeholderStyle.Render(marker)
	}
	return line + "\n" + fmt.Sprintf("     x%s  %s", m.quantities[p.ID].String(), totalStyle.Render(pricing.Format(totals, m.deps.LocalLabel)))
}

// photoMarker returns the placeholder shown instead of a product photo, or
// "" when the photo is available.
func photoMarker(ref string) string {
	switch assets.Classify(ref) {
	case assets.Empty:
		return "[no photo]"
	case assets.Local:
		if _, err := os.Stat(ref); err != nil {
			return "[photo missing]"
		}
	}
	return ""
}

func describeChange(ev catalog.ChangeEvent) string {
	switch ev.Source {
	case "import":
		return fmt.Sprintf("Catalog updated by import: %d new, %d updated", ev.Inserted, ev.Updated)
	case "add":
		return "Product added"
	case "delete":
		return "Product deleted"
	}
	return "Catalog updated"
}
