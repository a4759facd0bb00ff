package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/template"
	"github.com/JohanChane/cmdbridge/internal/tokenizer"
	"github.com/JohanChane/cmdbridge/internal/tree"
)

func pacmanGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleGetopt,
		Program: "pacman",
		Arguments: []grammar.Argument{
			{Name: "sync", Options: []string{"-S"}, Cardinality: model.CardinalityZero},
			{Name: "refresh", Options: []string{"-y"}, Cardinality: model.CardinalityZero},
			{Name: "upgrade", Options: []string{"-u"}, Cardinality: model.CardinalityZero},
			{Name: "pkgs", Cardinality: model.CardinalityZeroOrMore},
		},
	}
}

func aptGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleArgparse,
		Program: "apt",
		Subcommands: []grammar.Subcommand{
			{
				Name:    "install",
				Aliases: []string{"in"},
				Arguments: []grammar.Argument{
					{Name: "yes", Options: []string{"-y", "--yes"}, Cardinality: model.CardinalityZero},
					{Name: "target", Options: []string{"-t", "--target-release"}, Cardinality: model.CardinalityOne},
					{Name: "pkgs", Cardinality: model.CardinalityOneOrMore},
				},
			},
			{Name: "update"},
		},
	}
}

// mustTemplate synthesizes one template, failing the test on error.
func mustTemplate(t *testing.T, op model.Operation, decl int, format string, g *grammar.Grammar) *model.Template {
	t.Helper()
	tpl, err := template.Synthesize(op, decl, format, g)
	require.NoError(t, err)
	return tpl
}

// parse tokenizes and builds a candidate tree.
func parse(t *testing.T, g *grammar.Grammar, argv ...string) *model.CommandNode {
	t.Helper()
	tokens, err := tokenizer.Tokenize(argv, g)
	require.NoError(t, err)
	node, err := tree.Build(tokens, g)
	require.NoError(t, err)
	return node
}

// pacmanTemplates compiles the small operation set most tests share.
func pacmanTemplates(t *testing.T) []*model.Template {
	t.Helper()
	g := pacmanGrammar()
	return []*model.Template{
		mustTemplate(t, model.Operation{Name: "update_index"}, 0, "pacman -Sy", g),
		mustTemplate(t, model.Operation{Name: "upgrade_all"}, 1, "pacman -Syu", g),
		mustTemplate(t, model.Operation{Name: "install_remote", Params: []string{"pkgs"}}, 2, "pacman -S {pkgs}", g),
	}
}

// --- Matching ---

// TestMatch_LiteralOperation verifies a fully literal template matches
// exactly its own flag set.
func TestMatch_LiteralOperation(t *testing.T) {
	res, err := Match(parse(t, pacmanGrammar(), "pacman", "-Syu"), pacmanTemplates(t))
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "upgrade_all", res.Operation)
	assert.Empty(t, res.Params)
}

// TestMatch_WildcardCapture verifies wildcard slots capture the live
// values under the parameter name.
func TestMatch_WildcardCapture(t *testing.T) {
	res, err := Match(parse(t, pacmanGrammar(), "pacman", "-S", "vim", "git"), pacmanTemplates(t))
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, "install_remote", res.Operation)
	assert.Equal(t, map[string][]string{"pkgs": {"vim", "git"}}, res.Params)
}

// TestMatch_FlagRepeatDistinguishes verifies -Sy and -Syy resolve to
// different operations through the repeat count.
func TestMatch_FlagRepeatDistinguishes(t *testing.T) {
	g := pacmanGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "update_index"}, 0, "pacman -Sy", g),
		mustTemplate(t, model.Operation{Name: "force_update_index"}, 1, "pacman -Syy", g),
	}

	single, err := Match(parse(t, g, "pacman", "-Sy"), templates)
	require.NoError(t, err)
	assert.Equal(t, "update_index", single.Operation)

	double, err := Match(parse(t, g, "pacman", "-Syy"), templates)
	require.NoError(t, err)
	assert.Equal(t, "force_update_index", double.Operation)

	// Bundled and separate spellings of the same repetition agree.
	separate, err := Match(parse(t, g, "pacman", "-S", "-y", "-y"), templates)
	require.NoError(t, err)
	assert.Equal(t, "force_update_index", separate.Operation)
}

// TestMatch_AliasAndSpellingNormalization verifies a candidate typed
// with aliases and interleaved flags still matches the template.
func TestMatch_AliasAndSpellingNormalization(t *testing.T) {
	g := aptGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "install_remote", Params: []string{"pkgs"}}, 0, "apt install -y {pkgs}", g),
	}

	for _, argv := range [][]string{
		{"apt", "install", "-y", "vim"},
		{"apt", "in", "--yes", "vim"},
		{"apt", "install", "vim", "-y"},
	} {
		res, err := Match(parse(t, g, argv...), templates)
		require.NoError(t, err)
		assert.True(t, res.Matched, "argv %v", argv)
		assert.Equal(t, map[string][]string{"pkgs": {"vim"}}, res.Params)
	}
}

// TestMatch_OptionParamExtraction verifies values bound through options
// extract alongside positional ones.
func TestMatch_OptionParamExtraction(t *testing.T) {
	g := aptGrammar()
	op := model.Operation{Name: "install_pinned", Params: []string{"release", "pkgs"}}
	templates := []*model.Template{
		mustTemplate(t, op, 0, "apt install -t {release} {pkgs}", g),
	}

	res, err := Match(parse(t, g, "apt", "install", "-t", "stable", "vim"), templates)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, map[string][]string{
		"release": {"stable"},
		"pkgs":    {"vim"},
	}, res.Params)
}

// TestMatch_SubcommandPresenceMustAgree verifies a chain of different
// depth never matches.
func TestMatch_SubcommandPresenceMustAgree(t *testing.T) {
	g := aptGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "update_index"}, 0, "apt update", g),
	}

	res, err := Match(parse(t, g, "apt"), templates)
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

// TestMatch_NoMatchIsNotAnError verifies an unmatched candidate returns
// a plain unmatched result.
func TestMatch_NoMatchIsNotAnError(t *testing.T) {
	res, err := Match(parse(t, pacmanGrammar(), "pacman", "-y"), pacmanTemplates(t))
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, res.Operation)
}

// --- Resolution ---

// TestMatch_FewerWildcardsWin verifies a literal template beats a
// wildcard template for the same command.
func TestMatch_FewerWildcardsWin(t *testing.T) {
	g := pacmanGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "install_remote", Params: []string{"pkgs"}}, 0, "pacman -S {pkgs}", g),
		mustTemplate(t, model.Operation{Name: "install_editor"}, 1, "pacman -S vim", g),
	}

	res, err := Match(parse(t, g, "pacman", "-S", "vim"), templates)
	require.NoError(t, err)
	assert.Equal(t, "install_editor", res.Operation)

	res, err = Match(parse(t, g, "pacman", "-S", "emacs"), templates)
	require.NoError(t, err)
	assert.Equal(t, "install_remote", res.Operation)
}

// TestMatch_DeclarationOrderBreaksTies verifies the earlier declaration
// wins when wildcard counts are equal.
func TestMatch_DeclarationOrderBreaksTies(t *testing.T) {
	g := pacmanGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "install_remote", Params: []string{"pkgs"}}, 0, "pacman -S {pkgs}", g),
		mustTemplate(t, model.Operation{Name: "install_single", Params: []string{"target"}}, 1, "pacman -S {target}", g),
	}

	res, err := Match(parse(t, g, "pacman", "-S", "vim"), templates)
	require.NoError(t, err)
	assert.Equal(t, "install_remote", res.Operation)
}

// TestMatch_EqualSpecificityIsAmbiguous verifies a full tie surfaces as
// an AmbiguityError naming the contenders.
func TestMatch_EqualSpecificityIsAmbiguous(t *testing.T) {
	g := pacmanGrammar()
	templates := []*model.Template{
		mustTemplate(t, model.Operation{Name: "install_remote", Params: []string{"pkgs"}}, 3, "pacman -S {pkgs}", g),
		mustTemplate(t, model.Operation{Name: "install_single", Params: []string{"target"}}, 3, "pacman -S {target}", g),
	}

	_, err := Match(parse(t, g, "pacman", "-S", "vim"), templates)
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	assert.ElementsMatch(t, []string{"install_remote", "install_single"}, ambErr.Operations)
}
