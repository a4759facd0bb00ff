package tokenizer

import (
	"fmt"
	"strings"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// Tokenize converts an argv word sequence into tokens under the given
// grammar. argv[0] is the program word and is emitted verbatim as the
// PROGRAM token; the remaining words are tokenized by the grammar's
// style rules.
func Tokenize(argv []string, g *grammar.Grammar) ([]model.Token, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command line")
	}

	switch g.Style {
	case model.StyleGetopt:
		return tokenizeGetopt(argv, g)
	case model.StyleArgparse:
		return tokenizeArgparse(argv, g)
	default:
		return nil, &grammar.ConfigError{Program: g.Program, Detail: fmt.Sprintf("invalid parser style %q", g.Style)}
	}
}

// isOptionWord reports whether word introduces an option. The bare "-"
// word is conventionally a value (stdin), not an option.
func isOptionWord(word string) bool {
	return strings.HasPrefix(word, "-") && word != "-" && word != "--"
}

// cutLongOption splits a "--opt=value" word into its name and inline
// value. hasValue distinguishes "--opt=" (an empty inline value) from
// a plain "--opt".
func cutLongOption(word string) (name, value string, hasValue bool) {
	return strings.Cut(word, "=")
}

// shortExpansion is the result of expanding one short word ("-Syy"):
// the flag tokens it contributes and, when the final letter takes a
// value, the argument now awaiting that value.
type shortExpansion struct {
	flags   []model.Token
	pending *grammar.Argument
}

// expandShort resolves a short word against the scope.
//
// A spelling declared verbatim ("-S" or even a multi-letter spelling)
// wins over bundle expansion. Otherwise every letter must resolve to a
// declared short option: zero-value letters become flag tokens with
// repeated letters collapsed into one token carrying a repeat count,
// and a value-taking letter is accepted only in last position.
func expandShort(word string, sc grammar.Scope, program, scopePath string) (shortExpansion, error) {
	if arg := sc.FindOption(word); arg != nil {
		if arg.IsFlag() {
			return shortExpansion{flags: []model.Token{{
				Kind:   model.TokenFlag,
				Values: []string{arg.PrimaryName()},
				Raw:    word,
				Repeat: 1,
			}}}, nil
		}
		return shortExpansion{pending: arg}, nil
	}

	letters := []rune(word[1:])
	type flagEntry struct {
		primary string
		repeat  int
	}
	var order []flagEntry
	index := make(map[string]int)
	var pending *grammar.Argument

	for i, letter := range letters {
		spelling := "-" + string(letter)
		arg := sc.FindOption(spelling)
		if arg == nil {
			return shortExpansion{}, &UnknownTokenError{Program: program, Scope: scopePath, Word: spelling}
		}
		if !arg.IsFlag() {
			if i != len(letters)-1 {
				return shortExpansion{}, &ArgumentOrderError{
					Program: program,
					Scope:   scopePath,
					Option:  spelling,
					Detail:  fmt.Sprintf("takes a value and must be last in bundle %q", word),
				}
			}
			pending = arg
			continue
		}
		primary := arg.PrimaryName()
		if at, seen := index[primary]; seen {
			order[at].repeat++
		} else {
			index[primary] = len(order)
			order = append(order, flagEntry{primary: primary, repeat: 1})
		}
	}

	out := shortExpansion{pending: pending}
	for _, entry := range order {
		out.flags = append(out.flags, model.Token{
			Kind:   model.TokenFlag,
			Values: []string{entry.primary},
			Raw:    word,
			Repeat: entry.repeat,
		})
	}
	return out, nil
}
