package config

import (
	"os"
	"path/filepath"

	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// ConfigFileNames are the names searched for when no config file is given,
// in order.
var ConfigFileNames = []string{"graphpack.yaml", "graphpack.yml", "graphpack.json", "graphpack.toml"}

// FindConfigFile returns the first of ConfigFileNames present in dir.
func FindConfigFile(dir string) (string, error) {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", oerrors.NewNotFoundError("no config file found", dir,
		"Run 'graphpack config init' or pass --config")
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
