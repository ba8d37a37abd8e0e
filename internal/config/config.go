package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// DataDir is the writable base directory supplied by the embedding
	// application. Every relative path below resolves against it.
	DataDir   string        `mapstructure:"data_dir"`
	AssetsDir string        `mapstructure:"assets_dir"`
	Store     StoreConfig   `mapstructure:"store"`
	Mongo     MongoConfig   `mapstructure:"mongo"`
	Postgres  PostgresConf  `mapstructure:"postgres"`
	Pricing   PricingConfig `mapstructure:"pricing"`
	Export    ExportConfig  `mapstructure:"export"`
	Log       LogConfig     `mapstructure:"log"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	BoltFile string `mapstructure:"bolt_file"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type PostgresConf struct {
	DSN string `mapstructure:"dsn"`
}

type PricingConfig struct {
	ExchangeRate string `mapstructure:"exchange_rate"`
	LocalLabel   string `mapstructure:"local_label"`
}

type ExportConfig struct {
	Workers int `mapstructure:"workers"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

const (
	DriverBolt     = "bolt"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// New returns a viper instance with defaults and INVENTORY_* environment
// overrides applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", "./data")
	v.SetDefault("assets_dir", "imported_photos")
	v.SetDefault("store.driver", DriverBolt)
	v.SetDefault("store.bolt_file", "catalog.db")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "inventory")
	v.SetDefault("mongo.collection", "products")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("pricing.exchange_rate", "40")
	v.SetDefault("pricing.local_label", "Bs")
	v.SetDefault("export.workers", 4)
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and resolves paths against DataDir.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	switch cfg.Store.Driver {
	case DriverBolt, DriverMongo, DriverPostgres:
	default:
		return nil, fmt.Errorf("invalid store driver %q, use bolt, mongo or postgres", cfg.Store.Driver)
	}
	if cfg.Store.Driver == DriverPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required for the postgres driver")
	}

	cfg.AssetsDir = cfg.resolve(cfg.AssetsDir)
	cfg.Store.BoltFile = cfg.resolve(cfg.Store.BoltFile)
	if cfg.Log.File != "" {
		cfg.Log.File = cfg.resolve(cfg.Log.File)
	}
	return cfg, nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}
