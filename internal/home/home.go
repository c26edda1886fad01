// Package home resolves the pdf-o-matico home directory and the paths
// kept under it.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the home directory.
	DefaultDirName = ".pdfomatico"

	// UploadsDirName is the subdirectory for the transient upload store.
	UploadsDirName = "uploads"

	// OutputDirName is where the CLI writes artifacts when no --out is given.
	OutputDirName = "output"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// EnvFileName is the optional dotenv file loaded at startup.
	EnvFileName = ".env"
)

// Dir represents the home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.pdfomatico).
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

// UploadsPath returns the default upload store root.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// OutputPath returns the default CLI output directory.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.path, OutputDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnvPath returns the path to the optional dotenv file.
func (d *Dir) EnvPath() string {
	return filepath.Join(d.path, EnvFileName)
}

// EnsureExists creates the home directory and the uploads directory.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return nil
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
