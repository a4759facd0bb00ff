package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// ErrNoCache reports that no cache has been written yet. Callers treat
// it as "build one", not as a failure.
var ErrNoCache = errors.New("no compiled cache on disk")

// manifestHeader tops the manifest file. The cache directory is derived
// state; editing it by hand only creates confusion at the next refresh.
const manifestHeader = "# Compiled template cache manifest.\n# Auto-generated by `cmdbridge cache refresh` - do not edit.\n"

// manifest is the YAML index of the cache directory: the fingerprint
// and build time, plus one entry per set file so Open knows what to
// read without globbing.
type manifest struct {
	Fingerprint string        `yaml:"fingerprint"`
	BuiltAt     time.Time     `yaml:"built_at"`
	Sets        []manifestSet `yaml:"sets,omitempty"`
	Excluded    []Exclusion   `yaml:"excluded,omitempty"`
}

// manifestSet summarizes one compiled set.
type manifestSet struct {
	Domain    string `yaml:"domain"`
	Group     string `yaml:"group"`
	Templates int    `yaml:"templates"`
	Skipped   int    `yaml:"skipped,omitempty"`
}

// Save writes the cache to disk: one CBOR file per compiled set plus
// the YAML manifest. The sets directory is replaced wholesale so files
// of groups that no longer exist do not linger.
func (c *Cache) Save(paths config.Paths) error {
	if err := os.MkdirAll(paths.CacheDir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitCacheError, "failed to create cache directory", err)
	}
	if err := os.RemoveAll(paths.SetsDir()); err != nil {
		return model.WrapCLIError(model.ExitCacheError, "failed to clear cache sets", err)
	}

	m := manifest{
		Fingerprint: c.fingerprint,
		BuiltAt:     c.builtAt,
		Excluded:    c.Excluded(),
	}

	for _, set := range c.Sets() {
		data, err := marshal(set)
		if err != nil {
			return model.WrapCLIError(model.ExitCacheError,
				fmt.Sprintf("failed to encode set %s/%s", set.Domain, set.Group), err)
		}
		path := paths.SetFile(set.Domain, set.Group)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return model.WrapCLIError(model.ExitCacheError, "failed to create cache directory", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return model.WrapCLIError(model.ExitCacheError,
				fmt.Sprintf("failed to write %s", path), err)
		}
		m.Sets = append(m.Sets, manifestSet{
			Domain:    set.Domain,
			Group:     set.Group,
			Templates: len(set.Templates),
			Skipped:   len(set.Skipped),
		})
	}

	manifestBytes, err := yaml.Marshal(&m)
	if err != nil {
		return model.WrapCLIError(model.ExitCacheError, "failed to encode cache manifest", err)
	}
	manifestBytes = append([]byte(manifestHeader), manifestBytes...)
	if err := os.WriteFile(paths.ManifestFile(), manifestBytes, 0o644); err != nil {
		return model.WrapCLIError(model.ExitCacheError,
			fmt.Sprintf("failed to write %s", paths.ManifestFile()), err)
	}
	return nil
}

// Open reads a previously saved cache. A missing manifest yields
// ErrNoCache; a manifest that names files which are unreadable or
// undecodable yields a cache error telling the user to refresh.
func Open(paths config.Paths) (*Cache, error) {
	manifestBytes, err := os.ReadFile(paths.ManifestFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCache
		}
		return nil, model.WrapCLIError(model.ExitCacheError,
			fmt.Sprintf("failed to read %s", paths.ManifestFile()), err)
	}

	var m manifest
	if err := yaml.Unmarshal(manifestBytes, &m); err != nil {
		return nil, model.WrapCLIError(model.ExitCacheError,
			"cache manifest is corrupt; run `cmdbridge cache refresh`", err)
	}

	c := &Cache{
		fingerprint: m.Fingerprint,
		builtAt:     m.BuiltAt,
		sets:        make(map[string]*Set, len(m.Sets)),
		excluded:    m.Excluded,
	}

	for _, entry := range m.Sets {
		path := paths.SetFile(entry.Domain, entry.Group)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitCacheError,
				fmt.Sprintf("cache set %s/%s is missing; run `cmdbridge cache refresh`", entry.Domain, entry.Group), err)
		}
		var set Set
		if err := unmarshal(data, &set); err != nil {
			return nil, model.WrapCLIError(model.ExitCacheError,
				fmt.Sprintf("cache set %s/%s is corrupt; run `cmdbridge cache refresh`", entry.Domain, entry.Group), err)
		}
		c.sets[setKey(set.Domain, set.Group)] = &set
	}
	return c, nil
}
