package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName    = ".memories" // default under $HOME
	dbFilename = "session.db"
)

// DataDir returns the directory where local state is stored: override when
// set, ~/.memories otherwise. It creates the directory with 0700
// permissions if it does not exist.
func DataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// SessionDBPath returns the absolute path to the SQLite file that holds the
// persisted session.
func SessionDBPath(override string) (string, error) {
	dir, err := DataDir(override)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
