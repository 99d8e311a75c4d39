package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SetupLogFile creates a timestamped "<name>-<time>.log" file in dir and
// removes the oldest files of the same name beyond maxFiles.
// The caller must close the returned file.
func SetupLogFile(dir, name string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.log", name,
		time.Now().UTC().Format("2006-01-02T15-04-05")))

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if err := cleanupOldLogs(dir, name, maxFiles); err != nil {
		// Logging still works; report and carry on.
		fmt.Fprintf(os.Stderr, "warning: failed to cleanup old logs: %v\n", err)
	}

	return f, nil
}

// cleanupOldLogs keeps the maxFiles newest logs. Timestamps sort
// lexicographically, so name order is age order.
func cleanupOldLogs(dir, name string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(dir, name+"-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= maxFiles {
		return nil
	}

	sort.Strings(files)
	for _, file := range files[:len(files)-maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("remove %s: %w", file, err)
		}
	}
	return nil
}
