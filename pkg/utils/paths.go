package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "padnotes"

// DataDir returns the system-appropriate directory holding the database and
// media files.
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName)
	default: // Linux and other UNIX-like systems.
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		return filepath.Join(homeDir, ".local", "share", appDirName)
	}
}

func DefaultDBPath() string {
	return filepath.Join(DataDir(), "padnotes.db")
}

func DefaultMediaDir() string {
	return filepath.Join(DataDir(), "media")
}

// ExpandPath resolves a leading "~/" and makes the path absolute.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", path, err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", path, err)
	}
	return absPath, nil
}

// ResolveAndEnsureDBPath expands providedPath (or the default when empty)
// and creates its parent directory. ":memory:" is returned unchanged.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	if strings.HasPrefix(providedPath, ":memory:") {
		return providedPath, nil
	}
	targetPath := providedPath
	if targetPath == "" {
		targetPath = DefaultDBPath()
	}

	targetPath, err := ExpandPath(targetPath)
	if err != nil {
		return "", err
	}
	if err := ensureDir(filepath.Dir(targetPath)); err != nil {
		return "", err
	}
	return targetPath, nil
}

// ResolveAndEnsureDir expands dir and creates it if missing.
func ResolveAndEnsureDir(dir string) (string, error) {
	target, err := ExpandPath(dir)
	if err != nil {
		return "", err
	}
	if err := ensureDir(target); err != nil {
		return "", err
	}
	return target, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory '%s': %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("'%s' exists and is not a directory", dir)
	}
	return nil
}
