// Package storage provides persistent storage for preferences, game
// statistics and the archive of played games.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	dirName = "losalamos"

	// DataHomeEnv overrides the platform data location when set.
	DataHomeEnv = "LOSALAMOS_DATA_HOME"
)

// userDataHome is the per-user root that application directories live under:
// Application Support on macOS, APPDATA on Windows and XDG_DATA_HOME (or
// ~/.local/share) elsewhere.
func userDataHome() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate data home: %w", err)
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// ensureDir resolves the application directory, joins elem onto it and
// creates the result.
func ensureDir(elem ...string) (string, error) {
	root := os.Getenv(DataHomeEnv)
	if root == "" {
		home, err := userDataHome()
		if err != nil {
			return "", err
		}
		root = filepath.Join(home, dirName)
	}
	dir := filepath.Join(append([]string{root}, elem...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// GetDataDir returns the application's data directory, creating it if needed.
// LOSALAMOS_DATA_HOME replaces it entirely.
func GetDataDir() (string, error) { return ensureDir() }

// GetGamesDir returns where flat game logs are exported.
func GetGamesDir() (string, error) { return ensureDir("games") }

// GetDatabaseDir returns the badger directory.
func GetDatabaseDir() (string, error) { return ensureDir("db") }
