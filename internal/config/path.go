// Package config provides configuration utilities: path expansion and the
// warehouse template catalog loader.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and $VAR environment variables in a file path. Paths
// from config files and flags pass through here before reaching the
// filesystem.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
