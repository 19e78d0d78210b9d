package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"library-catalog/config"
)

// NewLogger builds a console logger writing to stderr, so it never mixes with
// the command output on stdout.
func NewLogger(cfg config.Log, name string) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Development = false
	zcfg.Level = zap.NewAtomicLevelAt(cfg.Level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.DisableStacktrace = cfg.Level > zapcore.DebugLevel

	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log.Named(name)
}
