package tui

import (
	"context"
	"path/filepath"
	"testing"

	"inventoryKeeper/internal/backup"
	"inventoryKeeper/internal/database"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store, err := database.NewBoltStore(filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return Deps{
		Store:        store,
		Backup:       backup.NewService(store),
		AssetsDir:    t.TempDir(),
		BackupDir:    t.TempDir(),
		ExchangeRate: "40",
		LocalLabel:   "Bs",
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds the resulting message back into the model, the
// way the program loop would for a single synchronous command.
func drain(t *testing.T, m *CatalogModel, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	_, _ = m.Update(cmd())
}

func TestCatalogModel_LoadAndTotals(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()
	_, err := deps.Store.Create(ctx, "Harina PAN", decimal.RequireFromString("2.5"), "")
	require.NoError(t, err)
	_, err = deps.Store.Create(ctx, "Arroz", decimal.RequireFromString("1.2"), "")
	require.NoError(t, err)

	m := NewCatalogModel(deps)
	drain(t, m, m.Init())
	require.Len(t, m.products, 2)

	// Move focus to the list and add three of the first product.
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	for i := 0; i < 3; i++ {
		m.Update(runes("+"))
	}

	totals := m.Totals(m.products[0])
	assert.True(t, totals.Active())
	assert.True(t, totals.USD.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, totals.Local.Equal(decimal.NewFromInt(300)))

	other := m.Totals(m.products[1])
	assert.False(t, other.Active())
	assert.True(t, other.Local.IsZero())

	assert.Contains(t, m.View(), "x3  ")
	assert.Contains(t, m.View(), "Total: $7.50 | Bs: 300.00")
	assert.Contains(t, m.View(), "[no photo]")
}

func TestCatalogModel_RateEditRecomputes(t *testing.T) {
	deps := newTestDeps(t)
	_, err := deps.Store.Create(context.Background(), "Cafe", decimal.NewFromInt(10), "")
	require.NoError(t, err)

	m := NewCatalogModel(deps)
	drain(t, m, m.Init())
	m.quantities[m.products[0].ID] = decimal.NewFromInt(2)

	m.rateInput.SetValue("36.5")
	assert.True(t, m.Totals(m.products[0]).Local.Equal(decimal.NewFromInt(730)))

	m.rateInput.SetValue("not a rate")
	totals := m.Totals(m.products[0])
	assert.True(t, totals.USD.Equal(decimal.NewFromInt(20)))
	assert.True(t, totals.Local.IsZero())
}

func TestCatalogModel_FractionalQuantityEntry(t *testing.T) {
	deps := newTestDeps(t)
	_, err := deps.Store.Create(context.Background(), "Queso", decimal.NewFromInt(2), "")
	require.NoError(t, err)

	m := NewCatalogModel(deps)
	drain(t, m, m.Init())
	m.focus = focusList
	p := m.products[0]

	m.Update(runes("e"))
	require.True(t, m.editingQty)
	m.qtyInput.SetValue("1.5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.editingQty)

	totals := m.Totals(p)
	assert.True(t, totals.Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, totals.USD.Equal(decimal.NewFromInt(3)))
	assert.True(t, totals.Local.Equal(decimal.NewFromInt(120)))
	assert.Contains(t, m.View(), "x1.5  ")
	assert.Contains(t, m.View(), "Total: $3.00 | Bs: 120.00")

	// Stepping keeps the fraction and stops at zero.
	m.Update(runes("+"))
	assert.True(t, m.quantities[p.ID].Equal(decimal.RequireFromString("2.5")))
	m.Update(runes("-"))
	m.Update(runes("-"))
	m.Update(runes("-"))
	_, kept := m.quantities[p.ID]
	assert.False(t, kept)
	assert.False(t, m.Totals(p).Active())

	// Esc leaves the quantity untouched and garbage counts as zero.
	m.Update(runes("e"))
	m.qtyInput.SetValue("7")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Totals(p).Active())
	m.Update(runes("e"))
	m.qtyInput.SetValue("lots")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Totals(p).Active())
}

func TestCatalogModel_SearchFiltersCaseInsensitively(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()
	for _, name := range []string{"Harina PAN", "Pan Dulce", "Arroz"} {
		_, err := deps.Store.Create(ctx, name, decimal.NewFromInt(1), "")
		require.NoError(t, err)
	}

	m := NewCatalogModel(deps)
	drain(t, m, m.Init())
	require.Len(t, m.products, 3)

	_, cmd := m.Update(runes("pan"))
	require.NotNil(t, cmd)
	m.searchInput.SetValue("pan")
	drain(t, m, m.load())

	require.Len(t, m.products, 2)
	assert.Equal(t, "Harina PAN", m.products[0].Name)
	assert.Equal(t, "Pan Dulce", m.products[1].Name)
}

func TestCatalogModel_StaleLoadIgnored(t *testing.T) {
	deps := newTestDeps(t)
	_, err := deps.Store.Create(context.Background(), "Arroz", decimal.NewFromInt(1), "")
	require.NoError(t, err)

	m := NewCatalogModel(deps)
	stale := m.load()
	m.searchInput.SetValue("zzz")
	drain(t, m, stale)

	assert.Empty(t, m.products)
}

func TestCatalogModel_DeleteRefreshes(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()
	_, err := deps.Store.Create(ctx, "Arroz", decimal.NewFromInt(1), "")
	require.NoError(t, err)
	_, err = deps.Store.Create(ctx, "Sal", decimal.NewFromInt(1), "")
	require.NoError(t, err)

	m := NewCatalogModel(deps)
	drain(t, m, m.Init())
	m.focus = focusList
	m.quantities[m.products[0].ID] = decimal.NewFromInt(4)

	m.Update(runes("d"))
	require.True(t, m.confirmDelete)
	_, cmd := m.Update(runes("y"))
	require.NotNil(t, cmd)

	changed, ok := cmd().(CatalogChangedMsg)
	require.True(t, ok)
	assert.Equal(t, 1, changed.Event.Deleted)

	_, reload := m.Update(changed)
	drain(t, m, reload)

	require.Len(t, m.products, 1)
	assert.Equal(t, "Sal", m.products[0].Name)
	assert.Empty(t, m.quantities)
	assert.Equal(t, "Product deleted", m.status)
}

func TestAddModel_SavesWithLenientPrice(t *testing.T) {
	deps := newTestDeps(t)
	m := NewAddModel(deps)
	m.nameInput.SetValue("  Queso  ")
	m.priceInput.SetValue("abc")

	_, cmd := m.save()
	require.NotNil(t, cmd)
	msg := cmd()
	_, next := m.Update(msg)
	require.NotNil(t, next)
	assert.IsType(t, CatalogChangedMsg{}, next())

	got, found, err := deps.Store.FindByName(context.Background(), "Queso")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Price.IsZero())
	assert.Equal(t, "", m.nameInput.Value())
}

func TestAddModel_RejectsBlankName(t *testing.T) {
	m := NewAddModel(newTestDeps(t))
	m.nameInput.SetValue("   ")

	_, cmd := m.save()
	assert.Nil(t, cmd)
	assert.Error(t, m.err)
}

func TestModel_CatalogChangeReachesCatalogFromAnyScreen(t *testing.T) {
	deps := newTestDeps(t)
	model := NewModel(deps)
	model.currentScreen = ImportScreen

	_, err := deps.Store.Create(context.Background(), "Arroz", decimal.NewFromInt(1), "")
	require.NoError(t, err)

	next, cmd := model.Update(CatalogChangedMsg{})
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())

	m := next.(Model)
	assert.Equal(t, ImportScreen, m.currentScreen)
	require.Len(t, m.catalogModel.products, 1)
}

func TestModel_QuitOnlyFromMenu(t *testing.T) {
	model := NewModel(newTestDeps(t))
	model.currentScreen = AddScreen

	next, _ := model.Update(runes("q"))
	assert.False(t, next.(Model).quitting)

	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, MenuScreen, next.(Model).currentScreen)

	next, cmd := next.(Model).Update(runes("q"))
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
}
