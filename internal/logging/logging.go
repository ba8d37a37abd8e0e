package logging

import (
	"os"

	"inventoryKeeper/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. Console output goes to stderr unless quiet
// is set (the TUI owns the terminal); when cfg.File is set a JSON copy is
// written there with rotation.
func New(cfg config.LogConfig, quiet bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	consoleEncoder := zap.NewDevelopmentEncoderConfig()
	if cfg.Mode == "production" {
		consoleEncoder = zap.NewProductionEncoderConfig()
	}

	var cores []zapcore.Core
	if !quiet {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoder),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    16,
				MaxBackups: 5,
				MaxAge:     30,
			}),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
