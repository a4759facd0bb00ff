package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultsFS carries the starter configuration shipped inside the
// binary: a pacman and an apt grammar plus a "package" domain bridging
// them. `cmdbridge config init` copies it into the user's tree.
//
//go:embed defaults
var defaultsFS embed.FS

// Init seeds the configuration directory from the embedded starter
// configuration and ensures the cache directory exists. Files already
// present are never overwritten, so re-running init after editing the
// configuration is safe. Returns the relative paths of the files
// actually created.
func Init(paths Paths) ([]string, error) {
	if err := os.MkdirAll(paths.ConfigDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(paths.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	var created []string
	err := fs.WalkDir(defaultsFS, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel("defaults", path)
		if err != nil {
			return err
		}
		target := filepath.Join(paths.ConfigDir, rel)

		if _, err := os.Stat(target); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat %s: %w", target, err)
		}

		data, err := defaultsFS.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		created = append(created, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
