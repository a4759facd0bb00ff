package tokenizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// summarize flattens tokens into compact strings so expected streams
// stay readable in table tests.
func summarize(tokens []model.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		var s string
		switch tok.Kind {
		case model.TokenProgram:
			s = fmt.Sprintf("program(%s)", tok.Value())
		case model.TokenSubcommand:
			s = fmt.Sprintf("sub(%s)", tok.Value())
		case model.TokenPositional:
			s = fmt.Sprintf("pos(%s)", tok.Value())
		case model.TokenOptionName:
			s = fmt.Sprintf("opt(%s)", tok.Value())
		case model.TokenOptionValue:
			s = fmt.Sprintf("val(%s)", tok.Value())
		case model.TokenFlag:
			s = fmt.Sprintf("flag(%s)", tok.Value())
			if tok.Repeat > 1 {
				s += fmt.Sprintf("x%d", tok.Repeat)
			}
		case model.TokenSeparator:
			s = "sep"
		case model.TokenExtra:
			s = fmt.Sprintf("extra(%s)", tok.Value())
		}
		out = append(out, s)
	}
	return out
}

// pacmanGrammar declares short-only flags so primary names stay short.
func pacmanGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleGetopt,
		Program: "pacman",
		Arguments: []grammar.Argument{
			{Name: "sync", Options: []string{"-S"}, Cardinality: model.CardinalityZero},
			{Name: "refresh", Options: []string{"-y"}, Cardinality: model.CardinalityZero},
			{Name: "upgrade", Options: []string{"-u"}, Cardinality: model.CardinalityZero},
			{Name: "targets", Cardinality: model.CardinalityZeroOrMore},
		},
	}
}

// tarGrammar mixes flags with a value-taking short option.
func tarGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Style:   model.StyleGetopt,
		Program: "tar",
		Arguments: []grammar.Argument{
			{Name: "extract", Options: []string{"-x"}, Cardinality: model.CardinalityZero},
			{Name: "gzip", Options: []string{"-z"}, Cardinality: model.CardinalityZero},
			{Name: "verbose", Options: []string{"-v"}, Cardinality: model.CardinalityZero},
			{Name: "file", Options: []string{"-f", "--file"}, Cardinality: model.CardinalityOne},
			{Name: "paths", Cardinality: model.CardinalityZeroOrMore},
		},
	}
}

// TestGetopt_Basic covers flags, bundles and positionals in one stream.
func TestGetopt_Basic(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		expected []string
	}{
		{
			name:     "separate flags and positionals",
			argv:     []string{"pacman", "-S", "vim", "git"},
			expected: []string{"program(pacman)", "flag(-S)", "pos(vim)", "pos(git)"},
		},
		{
			name:     "bundle expands per letter",
			argv:     []string{"pacman", "-Syu"},
			expected: []string{"program(pacman)", "flag(-S)", "flag(-y)", "flag(-u)"},
		},
		{
			name:     "repeated letter collapses with repeat count",
			argv:     []string{"pacman", "-Syy"},
			expected: []string{"program(pacman)", "flag(-S)", "flag(-y)x2"},
		},
		{
			name:     "flags interleave around positionals",
			argv:     []string{"pacman", "-S", "vim", "-y"},
			expected: []string{"program(pacman)", "flag(-S)", "pos(vim)", "flag(-y)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.argv, pacmanGrammar())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, summarize(tokens))
		})
	}
}

// TestGetopt_OptionValues covers the adjacency rule: an option's value
// is the immediately following argv word.
func TestGetopt_OptionValues(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		expected []string
	}{
		{
			name:     "bundle with value taker last",
			argv:     []string{"tar", "-xzvf", "archive.tar"},
			expected: []string{"program(tar)", "flag(-x)", "flag(-z)", "flag(-v)", "opt(--file)", "val(archive.tar)"},
		},
		{
			name:     "long option with separate value",
			argv:     []string{"tar", "-x", "--file", "archive.tar"},
			expected: []string{"program(tar)", "flag(-x)", "opt(--file)", "val(archive.tar)"},
		},
		{
			name:     "long option with equals value",
			argv:     []string{"tar", "--file=archive.tar"},
			expected: []string{"program(tar)", "opt(--file)", "val(archive.tar)"},
		},
		{
			name:     "value then positionals",
			argv:     []string{"tar", "-xf", "archive.tar", "src", "docs"},
			expected: []string{"program(tar)", "flag(-x)", "opt(--file)", "val(archive.tar)", "pos(src)", "pos(docs)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.argv, tarGrammar())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, summarize(tokens))
		})
	}
}

// TestGetopt_PrimaryNameNormalization verifies that a short spelling
// normalizes to the long primary name when one is declared.
func TestGetopt_PrimaryNameNormalization(t *testing.T) {
	tokens, err := Tokenize([]string{"tar", "-x", "-f", "a.tar"}, tarGrammar())
	require.NoError(t, err)

	// "-f" is declared as ["-f", "--file"], so its primary name is the
	// long form and both spellings tokenize identically.
	assert.Equal(t, "--file", tokens[2].Value())

	long, err := Tokenize([]string{"tar", "-x", "--file", "a.tar"}, tarGrammar())
	require.NoError(t, err)
	assert.Equal(t, summarizeNormalized(tokens), summarizeNormalized(long))
}

// summarizeNormalized is summarize over the normalized values only,
// ignoring raw spellings.
func summarizeNormalized(tokens []model.Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = string(tok.Kind) + ":" + tok.Value()
	}
	return out
}

// TestGetopt_SeparatorAndExtras verifies that words after "--" pass
// through untyped.
func TestGetopt_SeparatorAndExtras(t *testing.T) {
	tokens, err := Tokenize([]string{"pacman", "-S", "vim", "--", "-y", "whatever"}, pacmanGrammar())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"program(pacman)", "flag(-S)", "pos(vim)", "sep", "extra(-y)", "extra(whatever)",
	}, summarize(tokens))
}

// TestGetopt_Errors covers the tokenization failure modes.
func TestGetopt_Errors(t *testing.T) {
	t.Run("value missing at end of argv", func(t *testing.T) {
		_, err := Tokenize([]string{"tar", "-xzv", "archive.tar", "-f"}, tarGrammar())
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Contains(t, orderErr.Error(), "--file")
	})

	t.Run("value taker not last in bundle", func(t *testing.T) {
		_, err := Tokenize([]string{"tar", "-xfz", "archive.tar"}, tarGrammar())
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Contains(t, orderErr.Error(), "-f")
		assert.Contains(t, orderErr.Error(), "bundle")
	})

	t.Run("option followed by another option", func(t *testing.T) {
		_, err := Tokenize([]string{"tar", "-f", "-x", "archive.tar"}, tarGrammar())
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
	})

	t.Run("option followed by separator", func(t *testing.T) {
		_, err := Tokenize([]string{"tar", "-f", "--", "archive.tar"}, tarGrammar())
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
	})

	t.Run("unknown short flag", func(t *testing.T) {
		_, err := Tokenize([]string{"pacman", "-Q"}, pacmanGrammar())
		var unknownErr *UnknownTokenError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "-Q", unknownErr.Word)
	})

	t.Run("unknown letter inside bundle", func(t *testing.T) {
		_, err := Tokenize([]string{"pacman", "-Sq"}, pacmanGrammar())
		var unknownErr *UnknownTokenError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "-q", unknownErr.Word)
	})

	t.Run("unknown long option", func(t *testing.T) {
		_, err := Tokenize([]string{"tar", "--exclude", "tmp"}, tarGrammar())
		var unknownErr *UnknownTokenError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "--exclude", unknownErr.Word)
	})

	t.Run("bare word in a scope without a positional", func(t *testing.T) {
		g := &grammar.Grammar{
			Style:   model.StyleGetopt,
			Program: "true",
			Arguments: []grammar.Argument{
				{Name: "quiet", Options: []string{"-q"}, Cardinality: model.CardinalityZero},
			},
		}
		_, err := Tokenize([]string{"true", "word"}, g)
		var unknownErr *UnknownTokenError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "word", unknownErr.Word)
	})

	t.Run("more positionals than the declaration allows", func(t *testing.T) {
		g := &grammar.Grammar{
			Style:   model.StyleGetopt,
			Program: "readlink",
			Arguments: []grammar.Argument{
				{Name: "path", Cardinality: model.CardinalityOne},
			},
		}
		_, err := Tokenize([]string{"readlink", "a", "b"}, g)
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Contains(t, orderErr.Error(), "path")
	})

	t.Run("inline value handed to a flag", func(t *testing.T) {
		g := &grammar.Grammar{
			Style:   model.StyleGetopt,
			Program: "x",
			Arguments: []grammar.Argument{
				{Name: "verbose", Options: []string{"-v", "--verbose"}, Cardinality: model.CardinalityZero},
			},
		}
		_, err := Tokenize([]string{"x", "--verbose=yes"}, g)
		var orderErr *ArgumentOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Contains(t, orderErr.Error(), "does not take a value")
	})

	t.Run("empty argv", func(t *testing.T) {
		_, err := Tokenize(nil, pacmanGrammar())
		assert.Error(t, err)
	})
}

// TestGetopt_Deterministic verifies tokenization is a pure function of
// its inputs.
func TestGetopt_Deterministic(t *testing.T) {
	argv := []string{"tar", "-xzvf", "archive.tar", "src"}
	first, err := Tokenize(argv, tarGrammar())
	require.NoError(t, err)
	second, err := Tokenize(argv, tarGrammar())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestGetopt_DashWordIsValue verifies the conventional bare "-" word is
// treated as a value, not an option.
func TestGetopt_DashWordIsValue(t *testing.T) {
	tokens, err := Tokenize([]string{"tar", "-f", "-"}, tarGrammar())
	require.NoError(t, err)
	assert.Equal(t, []string{"program(tar)", "opt(--file)", "val(-)"}, summarize(tokens))
}
