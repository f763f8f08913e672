package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the versemill home directory.
	DefaultDirName = ".versemill"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DatabaseFileName is the sqlite record store.
	DatabaseFileName = "versemill.db"

	// PostgresDirName is the bind-mounted data directory of the postgres container.
	PostgresDirName = "postgres"

	// ExportsDirName holds record exports.
	ExportsDirName = "exports"
)

// Dir represents the versemill home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.versemill).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DatabasePath returns the path to the default sqlite database.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.path, DatabaseFileName)
}

// PostgresDataPath returns the host directory mounted into the postgres container.
func (d *Dir) PostgresDataPath() string {
	return filepath.Join(d.path, PostgresDirName)
}

// ExportsDir returns the directory for exported record dumps.
func (d *Dir) ExportsDir() string {
	return filepath.Join(d.path, ExportsDirName)
}

// ExportPath returns the export file for a book in the given format (json, yaml).
func (d *Dir) ExportPath(book, format string) string {
	return filepath.Join(d.ExportsDir(), strings.ToLower(book)+"."+format)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Creating exports also creates the parent.
	if err := os.MkdirAll(d.ExportsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	return nil
}

// EnsurePostgresDataDir creates the postgres data directory.
func (d *Dir) EnsurePostgresDataDir() error {
	return os.MkdirAll(d.PostgresDataPath(), 0o700)
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
