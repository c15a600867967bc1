// Package log owns the process-wide logrus logger.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/approvalflow/workflow-client/internal/system/config"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// GetLogger returns the shared logger, creating a JSON logger at info level on first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		if logger == nil {
			logger = logrus.New()
			logger.SetFormatter(&logrus.JSONFormatter{})
			logger.SetLevel(logrus.InfoLevel)
		}
	})
	return logger
}

// Init configures the shared logger from the logging section of the configuration.
func Init(cfg config.LoggingConfig) (*logrus.Logger, error) {
	l := GetLogger()

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	if cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		l.SetLevel(level)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)

	return l, nil
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "discard":
		return io.Discard, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, nil
	}
}
