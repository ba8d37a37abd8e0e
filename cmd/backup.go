package cmd

import (
	"fmt"

	"inventoryKeeper/internal/backup"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputPath   string
	backupFormat string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"backup"},
	Short:   "Export the catalog to a portable backup",
	Long: `Export every product to a JSON or CSV backup. Local photos are embedded
as base64 so the file can be restored on another device. When --output is a
directory the file is named backup_YYYYMMDD_HHMMSS.<format>.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (defaults to <data_dir>/backups)")
	exportCmd.Flags().StringVarP(&backupFormat, "format", "f", "", "Backup format: json or csv (detected from --output if empty)")
}

func runExport(cmd *cobra.Command, args []string) error {
	var format backup.Format
	if backupFormat != "" {
		f, err := backup.ParseFormat(backupFormat)
		if err != nil {
			return err
		}
		format = f
	}

	dest := outputPath
	if dest == "" {
		dest = defaultBackupDir()
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("starting export", zap.String("dest", dest), zap.String("format", string(format)))
	res, err := newBackupService(store, nil).Export(cmd.Context(), dest, format)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(res.Summary())
	return nil
}
