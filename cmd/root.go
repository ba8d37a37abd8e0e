package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"inventoryKeeper/internal/backup"
	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/config"
	"inventoryKeeper/internal/database"
	"inventoryKeeper/internal/logging"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	v       = config.New()

	cfg    *config.Config
	logger = zap.NewNop()
	bus    = catalog.NewBus()
)

var rootCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Product catalog with portable backups",
	Long: `Inventory keeps a small product catalog (name, USD price, photo) and
moves it between devices through self-contained JSON or CSV backups.

Running without a command starts the interactive TUI.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runTUI,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("data-dir", "", "Base directory for the catalog database and photos")
	flags.String("driver", "", "Store driver: bolt, mongo or postgres")
	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("store.driver", flags.Lookup("driver"))

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(autobackupCmd)
	rootCmd.AddCommand(tuiCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal; variables may come from the environment.
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	interactive := !cmd.HasParent() || cmd.Name() == tuiCmd.Name()
	logger, err = logging.New(cfg.Log, interactive)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openStore connects the configured driver.
func openStore() (catalog.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		store, err := database.NewMongoStore(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		store, err := database.NewPostgresStore(cfg.Postgres.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return store, nil
	default:
		store, err := database.NewBoltStore(cfg.Store.BoltFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Store.BoltFile, err)
		}
		return store, nil
	}
}

// newBackupService wires the service to b, which may be nil when nothing in
// the process listens for catalog changes.
func newBackupService(store catalog.Store, b EventBus.Bus) *backup.Service {
	return backup.NewService(store,
		backup.WithLogger(logger),
		backup.WithBus(b),
		backup.WithWorkers(cfg.Export.Workers),
	)
}

func defaultBackupDir() string {
	return filepath.Join(cfg.DataDir, "backups")
}
