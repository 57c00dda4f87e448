// Package logging builds the logrus loggers used by the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// New builds a text logger at the given level writing to out.
func New(level string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(out)
	return logger, nil
}

// NewFile builds a logger appending to path, creating parent directories.
// An empty path discards all output. The returned closer releases the file.
func NewFile(level, path string) (*logrus.Logger, io.Closer, error) {
	if path == "" {
		logger, err := New(level, io.Discard)
		return logger, nopCloser{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(level, f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
