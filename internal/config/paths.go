// Package config loads everything cmdbridge reads from disk: the global
// settings file, per-program grammar files (TOML or JSONC), and domain
// directories holding an interface file plus one operation-group file
// per target program.
//
// Layout under the configuration directory:
//
//	config.toml                   global settings
//	grammars/<program>.toml       grammar, TOML form
//	grammars/<program>.jsonc      grammar, JSONC form
//	<domain>.domain/base.toml     domain interface
//	<domain>.domain/<group>.toml  operation group
//
// Loading is strictly upstream of the engine: LoadSnapshot reads the
// whole tree once into an immutable Snapshot, and compilation, matching
// and rendering operate on that snapshot without touching the
// filesystem again.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// domainSuffix marks a configuration subdirectory as a domain.
const domainSuffix = ".domain"

// interfaceFileName is the reserved file inside a domain directory that
// declares the domain interface. It is never an operation group.
const interfaceFileName = "base.toml"

// Paths resolves every file location cmdbridge uses. Both directories
// are explicit so tests and callers can point the whole tool at a
// temporary tree.
type Paths struct {
	// ConfigDir is the root of the configuration tree.
	ConfigDir string

	// CacheDir is the root of the compiled template cache.
	CacheDir string
}

// DefaultPaths builds Paths from the XDG base directories, falling back
// to ~/.config and ~/.cache when the environment variables are unset.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, err
	}

	configBase := os.Getenv("XDG_CONFIG_HOME")
	if configBase == "" {
		configBase = filepath.Join(home, ".config")
	}
	cacheBase := os.Getenv("XDG_CACHE_HOME")
	if cacheBase == "" {
		cacheBase = filepath.Join(home, ".cache")
	}

	return Paths{
		ConfigDir: filepath.Join(configBase, "cmdbridge"),
		CacheDir:  filepath.Join(cacheBase, "cmdbridge"),
	}, nil
}

// GlobalFile returns the path of the global settings file.
func (p Paths) GlobalFile() string {
	return filepath.Join(p.ConfigDir, "config.toml")
}

// GrammarsDir returns the directory holding per-program grammar files.
func (p Paths) GrammarsDir() string {
	return filepath.Join(p.ConfigDir, "grammars")
}

// DomainDir returns the directory of one domain.
func (p Paths) DomainDir(domain string) string {
	return filepath.Join(p.ConfigDir, domain+domainSuffix)
}

// InterfaceFile returns the path of a domain's interface file.
func (p Paths) InterfaceFile(domain string) string {
	return filepath.Join(p.DomainDir(domain), interfaceFileName)
}

// GroupFile returns the path of one operation-group file.
func (p Paths) GroupFile(domain, group string) string {
	return filepath.Join(p.DomainDir(domain), group+".toml")
}

// ManifestFile returns the path of the cache manifest.
func (p Paths) ManifestFile() string {
	return filepath.Join(p.CacheDir, "manifest.yaml")
}

// SetsDir returns the directory holding compiled template sets.
func (p Paths) SetsDir() string {
	return filepath.Join(p.CacheDir, "domains")
}

// SetFile returns the path of one compiled template set in the cache.
func (p Paths) SetFile(domain, group string) string {
	return filepath.Join(p.CacheDir, "domains", domain, group+".cbor")
}

// ListDomains returns the names of all domains in the configuration
// directory, sorted. A missing configuration directory yields an empty
// list, not an error.
func (p Paths) ListDomains() ([]string, error) {
	entries, err := os.ReadDir(p.ConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var domains []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), domainSuffix) {
			domains = append(domains, strings.TrimSuffix(entry.Name(), domainSuffix))
		}
	}
	sort.Strings(domains)
	return domains, nil
}

// ListGroups returns the operation-group names of one domain, sorted.
// The interface file is not a group and is excluded.
func (p Paths) ListGroups(domain string) ([]string, error) {
	entries, err := os.ReadDir(p.DomainDir(domain))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var groups []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == interfaceFileName || !strings.HasSuffix(name, ".toml") {
			continue
		}
		groups = append(groups, strings.TrimSuffix(name, ".toml"))
	}
	sort.Strings(groups)
	return groups, nil
}

// ListGrammars returns the program names that have a grammar file,
// sorted. When a program has both a TOML and a JSONC file the name is
// reported once.
func (p Paths) ListGrammars() ([]string, error) {
	entries, err := os.ReadDir(p.GrammarsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	var programs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".toml" && ext != ".jsonc" {
			continue
		}
		program := strings.TrimSuffix(name, ext)
		if !seen[program] {
			seen[program] = true
			programs = append(programs, program)
		}
	}
	sort.Strings(programs)
	return programs, nil
}
