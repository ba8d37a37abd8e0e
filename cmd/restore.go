package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"inventoryKeeper/internal/backup"

	"github.com/spf13/cobra"
)

var (
	inputFile        string
	assetsDirFlag    string
	skipConfirmation bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Merge a JSON or CSV backup into the catalog",
	Long: `Restore reconciles a backup into the catalog by product name: existing
products get the backup price (and photo, when one is restored), new names
are inserted, and nothing is deleted. Embedded photos are written to the
assets directory. The whole import is applied in one transaction.`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Backup file to restore (required)")
	restoreCmd.Flags().StringVar(&assetsDirFlag, "assets-dir", "", "Directory for restored photos (defaults to assets_dir)")
	restoreCmd.Flags().BoolVar(&skipConfirmation, "yes", false, "Skip confirmation prompts")

	restoreCmd.MarkFlagRequired("input")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := backup.ValidateBackupFile(inputFile); err != nil {
		return fmt.Errorf("backup file validation failed: %w", err)
	}

	if !skipConfirmation {
		fmt.Println("About to restore:")
		fmt.Printf("  Source file: %s\n", inputFile)
		fmt.Printf("  Format: %s\n", backup.DetectFormat(inputFile))
		fmt.Printf("  Store: %s\n", cfg.Store.Driver)
		if !confirmAction("Do you want to continue?") {
			fmt.Println("Restore cancelled")
			return nil
		}
	}

	return importBackup(cmd, inputFile)
}

func importBackup(cmd *cobra.Command, src string) error {
	assetsDir := assetsDirFlag
	if assetsDir == "" {
		assetsDir = cfg.AssetsDir
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := newBackupService(store, nil).Import(cmd.Context(), src, assetsDir)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println(res.Summary())
	return nil
}

func confirmAction(message string) bool {
	fmt.Printf("%s (y/N): ", message)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
