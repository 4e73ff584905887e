// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level and destination.
type Options struct {
	Verbose bool
	// File receives all output when set.
	File string
	// Stdio reserves stdout for the MCP transport.
	Stdio bool
}

func (o Options) outputs() []string {
	switch {
	case o.File != "":
		return []string{o.File}
	case o.Stdio:
		return []string{"stderr"}
	default:
		return []string{"stdout"}
	}
}

// New returns a JSON production logger and a flush func to defer.
func New(opts Options) (*zap.Logger, func(), error) {
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	config := zap.NewProductionConfig()
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = opts.outputs()
	config.ErrorOutputPaths = opts.outputs()

	logger, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}
