// Package cli — list_test.go covers the pure formatting helpers the
// list subcommands share.
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// listSnapshot builds the minimal in-memory snapshot the helpers need:
// one domain, one healthy grammar, one broken, one missing.
func listSnapshot() *config.Snapshot {
	return &config.Snapshot{
		Global: config.Global{DefaultDomain: "package"},
		Grammars: map[string]*grammar.Grammar{
			"pacman": {Style: model.StyleGetopt, Program: "pacman"},
		},
		Broken: map[string]string{
			"dnf": `unknown nargs "?"`,
		},
		Domains: map[string]*config.Domain{
			"package": {
				Name: "package",
				Interface: map[string]model.Operation{
					"update_index":   {Name: "update_index"},
					"install_remote": {Name: "install_remote", Params: []string{"pkgs"}},
				},
				Groups: map[string]*config.Group{},
			},
		},
	}
}

// --- helpers ---

func TestGrammarStatus(t *testing.T) {
	snap := listSnapshot()

	assert.Equal(t, "ok", grammarStatus(snap, "pacman"))
	assert.Equal(t, `broken: unknown nargs "?"`, grammarStatus(snap, "dnf"))
	assert.Equal(t, "missing", grammarStatus(snap, "zypper"))
}

func TestFormatOpCommand(t *testing.T) {
	assert.Equal(t, "pacman -S {pkgs}",
		formatOpCommand(config.GroupOperation{CmdFormat: "pacman -S {pkgs}"}))

	assert.Equal(t, "pacman -S {pkgs}  (final: sudo pacman -S {pkgs})",
		formatOpCommand(config.GroupOperation{
			CmdFormat:      "pacman -S {pkgs}",
			FinalCmdFormat: "sudo pacman -S {pkgs}",
		}))

	// An identical final format adds nothing.
	assert.Equal(t, "apt update",
		formatOpCommand(config.GroupOperation{
			CmdFormat:      "apt update",
			FinalCmdFormat: "apt update",
		}))
}

func TestResolveDomainName(t *testing.T) {
	snap := listSnapshot()

	name, err := resolveDomainName(snap, "package")
	require.NoError(t, err)
	assert.Equal(t, "package", name)

	name, err = resolveDomainName(snap, "")
	require.NoError(t, err)
	assert.Equal(t, "package", name, "falls back to default_domain")

	_, err = resolveDomainName(snap, "shell")
	assert.ErrorContains(t, err, `unknown domain "shell"`)

	snap.Global.DefaultDomain = ""
	_, err = resolveDomainName(snap, "")
	assert.ErrorContains(t, err, "no default_domain configured")
}

func TestSortedOperations(t *testing.T) {
	snap := listSnapshot()

	assert.Equal(t, []string{"install_remote", "update_index"},
		sortedOperations(snap.Domain("package")))
}
