package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultHomeDir returns Seekr's per-user home directory (~/.seekr).
// Falls back to a temp directory if the user's home is unavailable.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".seekr")
	}
	return filepath.Join(home, ".seekr")
}

// DefaultLogDir returns the default log directory (~/.seekr/logs/).
func DefaultLogDir() string {
	return filepath.Join(DefaultHomeDir(), "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "seekr.log")
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}

// FindLogFile locates the log file for viewing. explicit, if non-empty,
// takes precedence.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found; expected at: %s", path)
}
