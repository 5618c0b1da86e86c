package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewZapLogr builds a logr.Logger backed by zap, configured from a
// level/format pair ("debug"|"info"|"warn"|"error", "json"|"console"). This
// is the handle every constructor in pkg/ekn takes instead of reaching for a
// package-level logger (Design Note: singletons for store access).
func NewZapLogr(level, format string) (logr.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zl, err := zapCfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
