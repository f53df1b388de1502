package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger: human-readable timestamps, level from
// config, and output duplicated to stdout and the log file when the file is
// writable.
func NewLogger(level, file string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err == nil {
			if f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				logger.SetOutput(io.MultiWriter(os.Stdout, f))
				return logger
			}
		}
		logger.Warnf("Could not open log file %s, logging to stdout only", file)
	}
	logger.SetOutput(os.Stdout)
	return logger
}
