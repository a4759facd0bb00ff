package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/render"
)

// pacmanGrammar is a flat getopt grammar shared by the build tests.
func pacmanGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleGetopt,
		Program: "pacman",
		Arguments: []grammar.Argument{
			{Name: "sync", Options: []string{"-S", "--sync"}, Cardinality: model.CardinalityZero},
			{Name: "refresh", Options: []string{"-y"}, Cardinality: model.CardinalityZero},
			{Name: "pkgs", Cardinality: model.CardinalityZeroOrMore},
		},
	}
}

// testSnapshot builds an in-memory snapshot with one domain bridging a
// healthy group, a group with a broken grammar, and a group with no
// grammar at all.
func testSnapshot() *config.Snapshot {
	iface := map[string]model.Operation{
		"install_remote": {Name: "install_remote", Params: []string{"pkgs"}},
		"update_index":   {Name: "update_index"},
	}
	return &config.Snapshot{
		Grammars: map[string]*grammar.Grammar{"pacman": pacmanGrammar()},
		Broken:   map[string]string{"dnf": "invalid nargs \"?\""},
		Domains: map[string]*config.Domain{
			"pkg": {
				Name:      "pkg",
				Interface: iface,
				Groups: map[string]*config.Group{
					"pacman": {
						Domain: "pkg",
						Name:   "pacman",
						Operations: map[string]config.GroupOperation{
							"update_index":   {CmdFormat: "pacman -Sy", FinalCmdFormat: "sudo pacman -Sy"},
							"install_remote": {CmdFormat: "pacman -S {pkgs}"},
						},
						Order: []string{"update_index", "install_remote"},
					},
					"dnf": {
						Domain:     "pkg",
						Name:       "dnf",
						Operations: map[string]config.GroupOperation{},
					},
					"zypper": {
						Domain:     "pkg",
						Name:       "zypper",
						Operations: map[string]config.GroupOperation{},
					},
				},
			},
		},
		Files: []config.ConfigFile{
			{RelPath: "grammars/pacman.toml", Data: []byte("grammar")},
			{RelPath: "pkg.domain/pacman.toml", Data: []byte("group")},
		},
	}
}

// --- Build ---

// TestBuild compiles a snapshot and verifies sets, exclusions and
// lookups.
func TestBuild(t *testing.T) {
	c, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	set, err := c.Lookup("pkg", "pacman")
	require.NoError(t, err)
	assert.Equal(t, "pacman", set.Program)
	require.Len(t, set.Templates, 2)
	assert.Equal(t, "update_index", set.Templates[0].Operation)
	assert.Equal(t, 0, set.Templates[0].DeclIndex)
	assert.Equal(t, "install_remote", set.Templates[1].Operation)
	assert.Equal(t, 1, set.Templates[1].DeclIndex)
	assert.Empty(t, set.Skipped)

	target, err := c.LookupRenderTarget("pkg", "pacman", "update_index")
	require.NoError(t, err)
	assert.Equal(t, "sudo pacman -Sy", target.Format())

	excluded := c.Excluded()
	require.Len(t, excluded, 2)
	assert.Equal(t, "dnf", excluded[0].Group)
	assert.Contains(t, excluded[0].Reason, "invalid nargs")
	assert.Equal(t, "zypper", excluded[1].Group)
	assert.Contains(t, excluded[1].Reason, "no grammar file")

	assert.Equal(t, []string{"pkg"}, c.Domains())
	assert.Equal(t, []string{"pacman"}, c.Groups("pkg"))
	assert.NotEmpty(t, c.Fingerprint())
}

// TestBuild_SkipsBadOperations verifies per-operation degradation: a
// format that fails synthesis or an operation missing from the
// interface skips only itself.
func TestBuild_SkipsBadOperations(t *testing.T) {
	snap := testSnapshot()
	group := snap.Domains["pkg"].Groups["pacman"]
	group.Operations["unknown_op"] = config.GroupOperation{CmdFormat: "pacman -S"}
	group.Operations["bad_format"] = config.GroupOperation{CmdFormat: "pacman -S {nope}"}
	group.Operations["unmapped"] = config.GroupOperation{}
	group.Order = append(group.Order, "unknown_op", "bad_format", "unmapped")
	snap.Domains["pkg"].Interface["bad_format"] = model.Operation{Name: "bad_format", Params: []string{"pkgs"}}
	snap.Domains["pkg"].Interface["unmapped"] = model.Operation{Name: "unmapped"}

	c, err := Build(context.Background(), snap, nil)
	require.NoError(t, err)

	set, err := c.Lookup("pkg", "pacman")
	require.NoError(t, err)

	assert.Len(t, set.Templates, 2, "healthy operations still compile")

	reasons := make(map[string]string)
	for _, s := range set.Skipped {
		reasons[s.Operation] = s.Reason
	}
	assert.Contains(t, reasons["unknown_op"], "domain interface")
	assert.Contains(t, reasons["bad_format"], "not a parameter")
	assert.Contains(t, reasons["unmapped"], "empty cmd_format")

	// The failed format still has a render target: skipping disables
	// matching from this group, not rendering into it.
	_, err = c.LookupRenderTarget("pkg", "pacman", "bad_format")
	assert.NoError(t, err)
}

// TestBuild_Deterministic verifies compile idempotence at the byte
// level: two builds of the same snapshot encode identically.
func TestBuild_Deterministic(t *testing.T) {
	c1, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	c2, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	set1, err := c1.Lookup("pkg", "pacman")
	require.NoError(t, err)
	set2, err := c2.Lookup("pkg", "pacman")
	require.NoError(t, err)

	bytes1, err := marshal(set1)
	require.NoError(t, err)
	bytes2, err := marshal(set2)
	require.NoError(t, err)
	assert.Equal(t, bytes1, bytes2)

	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
}

// --- Lookup errors ---

// TestLookupErrors pins the error types and wording for excluded,
// unknown, and unsupported lookups.
func TestLookupErrors(t *testing.T) {
	c, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)

	_, err = c.Lookup("pkg", "dnf")
	var exclErr *ExcludedError
	require.ErrorAs(t, err, &exclErr)
	assert.Equal(t, "dnf", exclErr.Group)
	assert.Contains(t, err.Error(), "excluded")
	assert.Contains(t, err.Error(), "invalid nargs")

	_, err = c.Lookup("pkg", "nix")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Contains(t, err.Error(), "no compiled set")

	_, err = c.LookupRenderTarget("pkg", "pacman", "remove")
	var nsErr *NotSupportedError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "remove", nsErr.Operation)
	assert.Contains(t, err.Error(), "not supported")
}

// --- Fingerprint ---

// TestFingerprint verifies stability and sensitivity.
func TestFingerprint(t *testing.T) {
	files := []config.ConfigFile{
		{RelPath: "a.toml", Data: []byte("alpha")},
		{RelPath: "b.toml", Data: []byte("beta")},
	}

	fp := Fingerprint(files)
	assert.Len(t, fp, 64, "hex of a 32-byte digest")
	assert.Equal(t, fp, Fingerprint(files), "same input, same fingerprint")

	changed := []config.ConfigFile{
		{RelPath: "a.toml", Data: []byte("alpha!")},
		{RelPath: "b.toml", Data: []byte("beta")},
	}
	assert.NotEqual(t, fp, Fingerprint(changed), "content changes are detected")

	renamed := []config.ConfigFile{
		{RelPath: "a2.toml", Data: []byte("alpha")},
		{RelPath: "b.toml", Data: []byte("beta")},
	}
	assert.NotEqual(t, fp, Fingerprint(renamed), "path changes are detected")

	// Length prefixes keep file boundaries unambiguous.
	assert.NotEqual(t,
		Fingerprint([]config.ConfigFile{{RelPath: "a", Data: []byte("bc")}}),
		Fingerprint([]config.ConfigFile{{RelPath: "ab", Data: []byte("c")}}),
	)
}

// --- Save and Open ---

// testCachePaths returns Paths with a temporary cache directory.
func testCachePaths(t *testing.T) config.Paths {
	t.Helper()
	root := t.TempDir()
	return config.Paths{
		ConfigDir: filepath.Join(root, "config"),
		CacheDir:  filepath.Join(root, "cache"),
	}
}

// TestSaveOpenRoundTrip persists a cache and reads it back.
func TestSaveOpenRoundTrip(t *testing.T) {
	paths := testCachePaths(t)

	built, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(paths))

	manifestBytes, err := os.ReadFile(paths.ManifestFile())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(manifestBytes), "# Compiled template cache manifest."))

	opened, err := Open(paths)
	require.NoError(t, err)

	assert.Equal(t, built.Fingerprint(), opened.Fingerprint())
	assert.Equal(t, built.BuiltAt(), opened.BuiltAt())
	assert.Equal(t, built.Excluded(), opened.Excluded())

	builtSet, err := built.Lookup("pkg", "pacman")
	require.NoError(t, err)
	openedSet, err := opened.Lookup("pkg", "pacman")
	require.NoError(t, err)
	assert.Equal(t, builtSet.Templates, openedSet.Templates)
	assert.Equal(t, builtSet.Targets, openedSet.Targets)
	assert.Equal(t, builtSet.Grammar, openedSet.Grammar)

	target, err := opened.LookupRenderTarget("pkg", "pacman", "install_remote")
	require.NoError(t, err)
	assert.Equal(t, render.Target{CmdFormat: "pacman -S {pkgs}"}, target)
}

// TestOpen_NoCache distinguishes "never built" from corruption.
func TestOpen_NoCache(t *testing.T) {
	paths := testCachePaths(t)

	_, err := Open(paths)
	assert.ErrorIs(t, err, ErrNoCache)
}

// TestOpen_MissingSetFile surfaces a cache error pointing at refresh.
func TestOpen_MissingSetFile(t *testing.T) {
	paths := testCachePaths(t)

	built, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(paths))
	require.NoError(t, os.Remove(paths.SetFile("pkg", "pacman")))

	_, err = Open(paths)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCacheError, cliErr.Code)
	assert.Contains(t, err.Error(), "cache refresh")
}

// TestSave_RemovesStaleSets verifies that re-saving drops files of
// groups that no longer compile.
func TestSave_RemovesStaleSets(t *testing.T) {
	paths := testCachePaths(t)

	built, err := Build(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	require.NoError(t, built.Save(paths))
	stale := paths.SetFile("pkg", "pacman")
	require.FileExists(t, stale)

	smaller := testSnapshot()
	delete(smaller.Domains["pkg"].Groups, "pacman")
	rebuilt, err := Build(context.Background(), smaller, nil)
	require.NoError(t, err)
	require.NoError(t, rebuilt.Save(paths))

	assert.NoFileExists(t, stale)
}
