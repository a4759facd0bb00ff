package tokenizer

import (
	"fmt"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// tokenizeArgparse tokenizes argv under argparse conventions. A word
// matching a declared subcommand name or alias emits a SUBCOMMAND token
// and descends recursively into that scope; the scope cursor never
// returns. Option values are consumed by quota: an option owed an exact
// number of values takes the following words unconditionally, while an
// open-ended option ("+" after its first value, "*" immediately) yields
// to subcommand words first.
func tokenizeArgparse(argv []string, g *grammar.Grammar) ([]model.Token, error) {
	tokens := []model.Token{{
		Kind:   model.TokenProgram,
		Values: []string{argv[0]},
		Raw:    argv[0],
	}}

	rest, err := tokenizeScope(argv[1:], g.RootScope(), g.Program, g.Program)
	if err != nil {
		return nil, err
	}
	return append(tokens, rest...), nil
}

// scopeState tracks the option currently collecting values within one
// scope.
type scopeState struct {
	pending  *grammar.Argument // option still accepting values, nil when closed
	spelling string            // spelling to name in errors
	consumed int               // values taken so far
	owed     int               // values that must come next, unconditionally
}

// open reports whether an option is still accepting values.
func (s *scopeState) open() bool {
	return s.pending != nil
}

// take consumes one value word and closes the option once another value
// would exceed its cardinality.
func (s *scopeState) take() {
	s.consumed++
	if s.owed > 0 {
		s.owed--
	}
	if !s.pending.Cardinality.AcceptsCount(s.consumed + 1) {
		s.pending = nil
		s.spelling = ""
		s.consumed = 0
		s.owed = 0
	}
}

// begin opens a value-taking option. Cardinality "1" owes exactly one
// word; "+" owes one eagerly and then accepts more; "*" owes none.
func (s *scopeState) begin(arg *grammar.Argument, spelling string) {
	s.pending = arg
	s.spelling = spelling
	s.consumed = 0
	switch arg.Cardinality {
	case model.CardinalityOne, model.CardinalityOneOrMore:
		s.owed = 1
	default:
		s.owed = 0
	}
}

// tokenizeScope tokenizes the words of one scope, recursing when a
// subcommand word descends into the next.
func tokenizeScope(words []string, sc grammar.Scope, program, scopePath string) ([]model.Token, error) {
	var tokens []model.Token
	var state scopeState
	positionals := 0
	afterSep := false

	for i := 0; i < len(words); i++ {
		word := words[i]

		if afterSep {
			tokens = append(tokens, model.Token{Kind: model.TokenExtra, Values: []string{word}, Raw: word})
			continue
		}

		if word == "--" {
			if state.owed > 0 {
				return nil, missingValueErr(program, scopePath, state.spelling)
			}
			tokens = append(tokens, model.Token{Kind: model.TokenSeparator, Raw: word})
			afterSep = true
			continue
		}

		if isOptionWord(word) {
			if state.open() {
				return nil, &ArgumentOrderError{
					Program: program,
					Scope:   scopePath,
					Option:  state.spelling,
					Detail:  fmt.Sprintf("is still collecting values when %q appears", word),
				}
			}

			var pending *grammar.Argument
			var err error
			tokens, pending, _, err = tokenizeOptionWord(tokens, word, sc, program, scopePath)
			if err != nil {
				return nil, err
			}
			if pending != nil {
				state.begin(pending, pending.PrimaryName())
			}
			continue
		}

		// Words owed to an option are values no matter what they spell.
		if state.owed > 0 {
			tokens = append(tokens, model.Token{Kind: model.TokenOptionValue, Values: []string{word}, Raw: word})
			state.take()
			continue
		}

		if sub := sc.FindSubcommand(word); sub != nil {
			tokens = append(tokens, model.Token{
				Kind:   model.TokenSubcommand,
				Values: []string{sub.Name},
				Raw:    word,
			})
			rest, err := tokenizeScope(words[i+1:], sub.Scope(), program, scopePath+" "+sub.Name)
			if err != nil {
				return nil, err
			}
			return append(tokens, rest...), nil
		}

		if state.open() {
			tokens = append(tokens, model.Token{Kind: model.TokenOptionValue, Values: []string{word}, Raw: word})
			state.take()
			continue
		}

		pos := sc.Positional()
		if pos == nil {
			return nil, &UnknownTokenError{Program: program, Scope: scopePath, Word: word}
		}
		if !pos.Cardinality.AcceptsCount(positionals + 1) {
			return nil, &ArgumentOrderError{
				Program: program,
				Scope:   scopePath,
				Detail:  fmt.Sprintf("too many values for positional %q", pos.Name),
			}
		}
		tokens = append(tokens, model.Token{Kind: model.TokenPositional, Values: []string{word}, Raw: word})
		positionals++
	}

	if state.owed > 0 {
		return nil, missingValueErr(program, scopePath, state.spelling)
	}
	return tokens, nil
}
