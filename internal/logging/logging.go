package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/config"
)

// New builds the process logger. "console" is the human-readable development
// encoder, anything else is production JSON.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Style == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
