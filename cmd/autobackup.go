package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inventoryKeeper/internal/backup"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	autoSchedule string
	autoDir      string
	autoKeep     int
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var autobackupCmd = &cobra.Command{
	Use:   "autobackup",
	Short: "Export the catalog on a schedule",
	Long: `Run in the foreground and export a timestamped JSON backup on every tick
of the cron schedule, keeping only the newest --keep files. Stops on
SIGINT or SIGTERM.`,
	RunE: runAutobackup,
}

func init() {
	autobackupCmd.Flags().StringVar(&autoSchedule, "cron", "@daily", "Cron expression or descriptor")
	autobackupCmd.Flags().StringVarP(&autoDir, "dir", "d", "", "Backup directory (defaults to <data_dir>/backups)")
	autobackupCmd.Flags().IntVar(&autoKeep, "keep", 7, "Number of backups to keep, 0 keeps all")
}

func runAutobackup(cmd *cobra.Command, args []string) error {
	dir := autoDir
	if dir == "" {
		dir = defaultBackupDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := newBackupService(store, nil)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := cron.New(cron.WithParser(cronParser))
	if _, err := sched.AddFunc(autoSchedule, func() { runScheduledBackup(ctx, svc, dir) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", autoSchedule, err)
	}

	logger.Info("autobackup started", zap.String("schedule", autoSchedule), zap.String("dir", dir), zap.Int("keep", autoKeep))
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	logger.Info("autobackup stopped")
	return nil
}

func runScheduledBackup(ctx context.Context, svc *backup.Service, dir string) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error("scheduled backup panicked", zap.Any("error", err))
		}
	}()

	res, err := svc.Export(ctx, dir, backup.FormatJSON)
	if err != nil {
		logger.Error("scheduled backup failed", zap.Error(err))
		return
	}
	logger.Info("scheduled backup written", zap.String("path", res.Path), zap.Int("exported", res.Exported))

	if autoKeep <= 0 {
		return
	}
	removed, err := backup.PruneBackups(dir, autoKeep)
	if err != nil {
		logger.Warn("failed to prune old backups", zap.Error(err))
		return
	}
	for _, path := range removed {
		logger.Info("old backup removed", zap.String("path", path))
	}
}
