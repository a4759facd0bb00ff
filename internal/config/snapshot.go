package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// ConfigFile is one raw configuration file captured for fingerprinting.
// RelPath is slash-separated and relative to the configuration
// directory regardless of platform.
type ConfigFile struct {
	RelPath string
	Data    []byte
}

// Domain is one loaded domain: its interface plus every operation
// group found in its directory.
type Domain struct {
	// Name is the domain name, from the directory name.
	Name string

	// Interface maps operation name to its canonical declaration.
	Interface map[string]model.Operation

	// Groups maps group name to its loaded operation group.
	Groups map[string]*Group
}

// Snapshot is one complete, immutable read of the configuration tree.
// Template compilation, matching and rendering all operate on a
// Snapshot; nothing downstream of LoadSnapshot reads the filesystem.
type Snapshot struct {
	// Global holds the [global_settings] values.
	Global Global

	// Grammars maps program name to its loaded grammar. Programs whose
	// grammar file failed to load are absent here and present in Broken.
	Grammars map[string]*grammar.Grammar

	// Broken maps program name to the reason its grammar is unusable.
	// A broken grammar does not fail the snapshot: groups that need it
	// are excluded from compilation with this reason instead.
	Broken map[string]string

	// Domains maps domain name to its loaded domain.
	Domains map[string]*Domain

	// Files lists every configuration file read, sorted by RelPath, for
	// fingerprinting the tree the snapshot was built from.
	Files []ConfigFile
}

// LoadSnapshot reads the whole configuration tree under paths.
//
// Grammar file defects degrade gracefully into Snapshot.Broken; defects
// in the global file, a domain interface or an operation group fail the
// load, since those files are small and a silent partial result would
// be harder to debug than the error.
func LoadSnapshot(paths Paths) (*Snapshot, error) {
	snap := &Snapshot{
		Grammars: make(map[string]*grammar.Grammar),
		Broken:   make(map[string]string),
		Domains:  make(map[string]*Domain),
	}

	global, err := LoadGlobal(paths)
	if err != nil {
		return nil, err
	}
	snap.Global = global
	snap.captureFile(paths.ConfigDir, paths.GlobalFile())

	if err := snap.loadGrammars(paths); err != nil {
		return nil, err
	}
	if err := snap.loadDomains(paths); err != nil {
		return nil, err
	}

	sort.Slice(snap.Files, func(i, j int) bool {
		return snap.Files[i].RelPath < snap.Files[j].RelPath
	})
	return snap, nil
}

// loadGrammars reads every grammar file. A program with both a TOML and
// a JSONC file is ambiguous and recorded as broken rather than silently
// preferring one form.
func (s *Snapshot) loadGrammars(paths Paths) error {
	entries, err := os.ReadDir(paths.GrammarsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list grammars: %w", err)
	}

	byProgram := make(map[string][]string)
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
		byProgram[program] = append(byProgram[program], filepath.Join(paths.GrammarsDir(), name))
	}

	programs := make([]string, 0, len(byProgram))
	for program := range byProgram {
		programs = append(programs, program)
	}
	sort.Strings(programs)

	for _, program := range programs {
		files := byProgram[program]
		for _, file := range files {
			s.captureFile(paths.ConfigDir, file)
		}
		if len(files) > 1 {
			s.Broken[program] = "has both a TOML and a JSONC grammar file"
			continue
		}
		g, err := LoadGrammar(files[0])
		if err != nil {
			s.Broken[program] = err.Error()
			continue
		}
		s.Grammars[program] = g
	}
	return nil
}

// loadDomains reads every *.domain directory: the interface first, then
// each group file.
func (s *Snapshot) loadDomains(paths Paths) error {
	names, err := paths.ListDomains()
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	for _, name := range names {
		ifacePath := paths.InterfaceFile(name)
		if _, err := os.Stat(ifacePath); err != nil {
			if os.IsNotExist(err) {
				return model.NewCLIError(
					model.ExitConfigError,
					fmt.Sprintf("domain %q has no %s", name, interfaceFileName),
				)
			}
			return fmt.Errorf("failed to stat %s: %w", ifacePath, err)
		}

		iface, err := LoadInterface(ifacePath, name)
		if err != nil {
			return err
		}
		s.captureFile(paths.ConfigDir, ifacePath)

		domain := &Domain{
			Name:      name,
			Interface: iface,
			Groups:    make(map[string]*Group),
		}

		groups, err := paths.ListGroups(name)
		if err != nil {
			return fmt.Errorf("failed to list groups of domain %q: %w", name, err)
		}
		for _, groupName := range groups {
			groupPath := paths.GroupFile(name, groupName)
			group, err := LoadGroup(groupPath, name, groupName)
			if err != nil {
				return err
			}
			s.captureFile(paths.ConfigDir, groupPath)
			domain.Groups[groupName] = group
		}

		s.Domains[name] = domain
	}
	return nil
}

// captureFile records one file's raw bytes for fingerprinting. Missing
// files are skipped: absence shows up as the path not being in the list.
func (s *Snapshot) captureFile(root, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	s.Files = append(s.Files, ConfigFile{RelPath: filepath.ToSlash(rel), Data: data})
}

// Domain returns one domain by name, or nil.
func (s *Snapshot) Domain(name string) *Domain {
	return s.Domains[name]
}

// Group returns one operation group by domain and name, or nil.
func (s *Snapshot) Group(domain, name string) *Group {
	d := s.Domains[domain]
	if d == nil {
		return nil
	}
	return d.Groups[name]
}

// DomainNames returns the loaded domain names, sorted.
func (s *Snapshot) DomainNames() []string {
	names := make([]string, 0, len(s.Domains))
	for name := range s.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupNames returns the group names of one domain, sorted. An unknown
// domain yields an empty list.
func (s *Snapshot) GroupNames(domain string) []string {
	d := s.Domains[domain]
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Groups))
	for name := range d.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
