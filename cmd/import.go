package cmd

import (
	"fmt"

	"inventoryKeeper/internal/backup"

	"github.com/spf13/cobra"
)

var csvFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products from a CSV file",
	Long: `Import products from a spreadsheet export. The CSV needs a header row
with the columns name, price, image_path and optionally image_payload.
Rows are reconciled by name exactly like a backup restore.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&csvFile, "csv", "c", "", "CSV file to import (required)")
	importCmd.Flags().StringVar(&assetsDirFlag, "assets-dir", "", "Directory for restored photos (defaults to assets_dir)")

	importCmd.MarkFlagRequired("csv")
}

func runImport(cmd *cobra.Command, args []string) error {
	if backup.DetectFormat(csvFile) != backup.FormatCSV {
		return fmt.Errorf("%s is not a .csv file, use restore for JSON backups", csvFile)
	}
	return importBackup(cmd, csvFile)
}
