// Package logging builds the zap logger. The TUI owns the terminal, so logs
// always go to a file.
package logging

import (
	"fmt"
	"strings"

	"github.com/byxorna/orderpane/pkg/runtime"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultFile = "orderpane.log"

// New returns a production zap logger writing JSON lines to path, or to the
// xdg cache dir when path is empty. verbose forces debug level.
func New(level, path string, verbose bool) (*zap.Logger, error) {
	if path == "" {
		p, err := runtime.CacheFile(DefaultFile)
		if err != nil {
			return nil, fmt.Errorf("unable to determine log file: %w", err)
		}
		path = p
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(LevelFromString(level))
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{expanded}
	config.ErrorOutputPaths = []string{expanded}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func LevelFromString(value string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return zapcore.ErrorLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "debug":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
