// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

// GlobalDirName is the name of the global Notchlight directory.
const GlobalDirName = ".notchlight"

// File names under the global directory.
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	StoreFileName    = "notchlight.db"
)

// GlobalDir returns the path to the global Notchlight directory (~/.notchlight/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalStoreFile returns the path to the durable key-value store.
func GlobalStoreFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StoreFileName), nil
}

// EnsureGlobalDir creates the global Notchlight directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
