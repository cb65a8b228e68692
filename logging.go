package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// newConsoleLogger returns the stderr logger used for warnings. An unknown level
// falls back to info.
func newConsoleLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "dscraper",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// openCopyLog truncates logs/copy.log and returns a logger writing to it.
// The caller closes the returned file once the copy run is done.
func openCopyLog(output OutputRoot) (*log.Logger, io.Closer, error) {
	path := filepath.Join(output.LogsDir(), copyLogName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("error creating log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening copy log %s: %w", path, err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
		Formatter:       log.LogfmtFormatter,
	})
	return logger, f, nil
}
