package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/tokenizer"
)

// pacmanGrammar is a flat getopt grammar with short-only flags.
func pacmanGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleGetopt,
		Program: "pacman",
		Arguments: []grammar.Argument{
			{Name: "sync", Options: []string{"-S"}, Cardinality: model.CardinalityZero},
			{Name: "refresh", Options: []string{"-y"}, Cardinality: model.CardinalityZero},
			{Name: "file", Options: []string{"-f", "--file"}, Cardinality: model.CardinalityOne},
			{Name: "targets", Cardinality: model.CardinalityZeroOrMore},
		},
	}
}

// aptGrammar is a one-level argparse grammar with a value-taking option.
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

// dockerGrammar is a two-level argparse grammar.
func dockerGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleArgparse,
		Program: "docker",
		Arguments: []grammar.Argument{
			{Name: "debug", Options: []string{"-D", "--debug"}, Cardinality: model.CardinalityZero},
		},
		Subcommands: []grammar.Subcommand{
			{
				Name: "container",
				Subcommands: []grammar.Subcommand{
					{
						Name:    "remove",
						Aliases: []string{"rm"},
						Arguments: []grammar.Argument{
							{Name: "force", Options: []string{"-f", "--force"}, Cardinality: model.CardinalityZero},
							{Name: "names", Cardinality: model.CardinalityOneOrMore},
						},
					},
				},
			},
		},
	}
}

// buildTree tokenizes argv and folds it into a tree, failing the test on
// any error.
func buildTree(t *testing.T, argv []string, g *grammar.Grammar) *model.CommandNode {
	t.Helper()
	tokens, err := tokenizer.Tokenize(argv, g)
	require.NoError(t, err)
	node, err := Build(tokens, g)
	require.NoError(t, err)
	return node
}

// --- Grouping ---

// TestBuild_GetoptGrouping verifies flags, positionals and canonical
// sibling order in a flat scope.
func TestBuild_GetoptGrouping(t *testing.T) {
	node := buildTree(t, []string{"pacman", "-S", "vim", "-y", "git"}, pacmanGrammar())

	assert.Equal(t, &model.CommandNode{
		Name: "pacman",
		Arguments: []model.CommandArg{
			{Kind: model.ArgFlag, OptionName: "-S", Repeat: 1},
			{Kind: model.ArgFlag, OptionName: "-y", Repeat: 1},
			{Kind: model.ArgPositional, OptionName: "targets", Values: []string{"vim", "git"}},
		},
	}, node)
}

// TestBuild_FlagRepeatAccumulates verifies that a bundled double letter
// and two separate words build the same argument.
func TestBuild_FlagRepeatAccumulates(t *testing.T) {
	bundled := buildTree(t, []string{"pacman", "-Syy"}, pacmanGrammar())
	separate := buildTree(t, []string{"pacman", "-S", "-y", "-y"}, pacmanGrammar())

	assert.Equal(t, bundled, separate)

	refresh := bundled.FindArgument(model.ArgFlag, "-y")
	require.NotNil(t, refresh)
	assert.Equal(t, 2, refresh.Repeat)
}

// TestBuild_OptionValuesAccumulate verifies a repeated option grows one
// argument instead of creating duplicates, across alias spellings.
func TestBuild_OptionValuesAccumulate(t *testing.T) {
	node := buildTree(t, []string{"pacman", "-f", "one", "--file", "two"}, pacmanGrammar())

	file := node.FindArgument(model.ArgOption, "--file")
	require.NotNil(t, file)
	assert.Equal(t, []string{"one", "two"}, file.Values)
	assert.Len(t, node.Arguments, 1)
}

// TestBuild_InterleavingsBuildEqualTrees verifies the flag position
// within a scope does not affect the tree.
func TestBuild_InterleavingsBuildEqualTrees(t *testing.T) {
	variants := [][]string{
		{"apt", "install", "-y", "vim", "git"},
		{"apt", "install", "vim", "-y", "git"},
		{"apt", "install", "vim", "git", "-y"},
	}

	first := buildTree(t, variants[0], aptGrammar())
	for _, argv := range variants[1:] {
		assert.Equal(t, first, buildTree(t, argv, aptGrammar()), "argv %v", argv)
	}
}

// --- Subcommands ---

// TestBuild_SubcommandChain verifies descent builds a node chain with
// arguments attached to the scopes that own them.
func TestBuild_SubcommandChain(t *testing.T) {
	node := buildTree(t, []string{"docker", "-D", "container", "rm", "-f", "web"}, dockerGrammar())

	assert.Equal(t, &model.CommandNode{
		Name: "docker",
		Arguments: []model.CommandArg{
			{Kind: model.ArgFlag, OptionName: "--debug", Repeat: 1},
		},
		Subcommand: &model.CommandNode{
			Name: "container",
			Subcommand: &model.CommandNode{
				Name: "remove",
				Arguments: []model.CommandArg{
					{Kind: model.ArgFlag, OptionName: "--force", Repeat: 1},
					{Kind: model.ArgPositional, OptionName: "names", Values: []string{"web"}},
				},
			},
		},
	}, node)

	assert.Equal(t, 2, node.Depth())
	assert.Equal(t, "remove", node.Deepest().Name)
}

// TestBuild_AliasBuildsCanonicalNode verifies an alias spelling and the
// canonical spelling build identical trees.
func TestBuild_AliasBuildsCanonicalNode(t *testing.T) {
	alias := buildTree(t, []string{"apt", "in", "vim"}, aptGrammar())
	canonical := buildTree(t, []string{"apt", "install", "vim"}, aptGrammar())

	assert.Equal(t, canonical, alias)
	assert.Equal(t, "install", alias.Subcommand.Name)
}

// --- Extras ---

// TestBuild_ExtrasAttachToDeepestNode verifies pass-through words form a
// single extra argument on the node where the separator appeared.
func TestBuild_ExtrasAttachToDeepestNode(t *testing.T) {
	node := buildTree(t, []string{"apt", "install", "vim", "--", "--force", "x"}, aptGrammar())

	install := node.Subcommand
	require.NotNil(t, install)
	extra := install.FindArgument(model.ArgExtra, "")
	require.NotNil(t, extra)
	assert.Equal(t, []string{"--force", "x"}, extra.Values)
	assert.Empty(t, node.Arguments, "extras belong to the scope that saw the separator")
}

// --- Errors ---

// TestBuild_Errors covers the defensive failures on malformed streams.
func TestBuild_Errors(t *testing.T) {
	t.Run("empty stream", func(t *testing.T) {
		_, err := Build(nil, pacmanGrammar())
		assert.Error(t, err)
	})

	t.Run("stream without program token", func(t *testing.T) {
		tokens := []model.Token{{Kind: model.TokenFlag, Values: []string{"-S"}, Repeat: 1}}
		_, err := Build(tokens, pacmanGrammar())
		assert.Error(t, err)
	})

	t.Run("orphan option value", func(t *testing.T) {
		tokens := []model.Token{
			{Kind: model.TokenProgram, Values: []string{"pacman"}},
			{Kind: model.TokenOptionValue, Values: []string{"stray"}},
		}
		_, err := Build(tokens, pacmanGrammar())
		assert.Error(t, err)
	})
}

// TestBuild_Deterministic verifies building is a pure function of its
// inputs.
func TestBuild_Deterministic(t *testing.T) {
	argv := []string{"apt", "install", "-t", "stable", "vim", "git", "-y"}
	first := buildTree(t, argv, aptGrammar())
	second := buildTree(t, argv, aptGrammar())
	assert.Equal(t, first, second)
}
