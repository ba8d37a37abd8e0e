package cmd

import (
	"fmt"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive catalog TUI (same as default)",
	Long: `Start the Terminal User Interface to browse the catalog with live totals,
add or delete products and export or import backups.

Note: This is the same as running the program without any commands.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	model := tui.NewModel(tui.Deps{
		Store:        store,
		Backup:       newBackupService(store, bus),
		AssetsDir:    cfg.AssetsDir,
		BackupDir:    defaultBackupDir(),
		ExchangeRate: cfg.Pricing.ExchangeRate,
		LocalLabel:   cfg.Pricing.LocalLabel,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Batches finished elsewhere in the process (imports) refresh the view.
	onChange := func(ev catalog.ChangeEvent) {
		p.Send(tui.CatalogChangedMsg{Event: ev})
	}
	if err := bus.SubscribeAsync(catalog.TopicChanged, onChange, false); err != nil {
		return fmt.Errorf("failed to subscribe to catalog changes: %w", err)
	}
	defer bus.Unsubscribe(catalog.TopicChanged, onChange)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
