package tokenizer

import (
	"fmt"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// tokenizeGetopt tokenizes argv under getopt conventions: one flat
// scope, no subcommands. An option's value must occupy the argv slot
// immediately after it; any other word there is an ArgumentOrderError.
// Plain words fill the scope's declared positional until the "--"
// separator and are extra after it; a scope that declares no
// positional rejects them.
func tokenizeGetopt(argv []string, g *grammar.Grammar) ([]model.Token, error) {
	sc := g.RootScope()
	scopePath := g.Program

	tokens := []model.Token{{
		Kind:   model.TokenProgram,
		Values: []string{argv[0]},
		Raw:    argv[0],
	}}

	var pending *grammar.Argument
	var pendingSpelling string
	inOptions := true
	positionals := 0

	for _, word := range argv[1:] {
		if !inOptions {
			tokens = append(tokens, model.Token{Kind: model.TokenExtra, Values: []string{word}, Raw: word})
			continue
		}

		if word == "--" {
			if pending != nil {
				return nil, missingValueErr(g.Program, scopePath, pendingSpelling)
			}
			tokens = append(tokens, model.Token{Kind: model.TokenSeparator, Raw: word})
			inOptions = false
			continue
		}

		if isOptionWord(word) {
			if pending != nil {
				return nil, &ArgumentOrderError{
					Program: g.Program,
					Scope:   scopePath,
					Option:  pendingSpelling,
					Detail:  fmt.Sprintf("expects a value but is followed by %q", word),
				}
			}

			var err error
			tokens, pending, pendingSpelling, err = tokenizeOptionWord(tokens, word, sc, g.Program, scopePath)
			if err != nil {
				return nil, err
			}
			continue
		}

		if pending != nil {
			tokens = append(tokens, model.Token{Kind: model.TokenOptionValue, Values: []string{word}, Raw: word})
			pending = nil
			pendingSpelling = ""
			continue
		}

		pos := sc.Positional()
		if pos == nil {
			return nil, &UnknownTokenError{Program: g.Program, Scope: scopePath, Word: word}
		}
		if !pos.Cardinality.AcceptsCount(positionals + 1) {
			return nil, &ArgumentOrderError{
				Program: g.Program,
				Scope:   scopePath,
				Detail:  fmt.Sprintf("too many values for positional %q", pos.Name),
			}
		}
		tokens = append(tokens, model.Token{Kind: model.TokenPositional, Values: []string{word}, Raw: word})
		positionals++
	}

	if pending != nil {
		return nil, missingValueErr(g.Program, scopePath, pendingSpelling)
	}
	return tokens, nil
}

// tokenizeOptionWord handles one option-introducing word for both
// styles: the "--opt" and "--opt=value" long forms, verbatim short
// spellings, and short bundles. It returns the extended token stream
// and, when the word leaves an option awaiting its value, that
// argument and the spelling to name in errors.
func tokenizeOptionWord(tokens []model.Token, word string, sc grammar.Scope, program, scopePath string) ([]model.Token, *grammar.Argument, string, error) {
	if len(word) > 2 && word[:2] == "--" {
		name, value, hasValue := cutLongOption(word)
		arg := sc.FindOption(name)
		if arg == nil {
			return nil, nil, "", &UnknownTokenError{Program: program, Scope: scopePath, Word: name}
		}
		if arg.IsFlag() {
			if hasValue {
				return nil, nil, "", &ArgumentOrderError{
					Program: program,
					Scope:   scopePath,
					Option:  name,
					Detail:  "does not take a value",
				}
			}
			tokens = append(tokens, model.Token{
				Kind:   model.TokenFlag,
				Values: []string{arg.PrimaryName()},
				Raw:    word,
				Repeat: 1,
			})
			return tokens, nil, "", nil
		}
		tokens = append(tokens, model.Token{
			Kind:   model.TokenOptionName,
			Values: []string{arg.PrimaryName()},
			Raw:    word,
		})
		if hasValue {
			tokens = append(tokens, model.Token{Kind: model.TokenOptionValue, Values: []string{value}, Raw: word})
			return tokens, nil, "", nil
		}
		return tokens, arg, name, nil
	}

	exp, err := expandShort(word, sc, program, scopePath)
	if err != nil {
		return nil, nil, "", err
	}
	tokens = append(tokens, exp.flags...)
	if exp.pending != nil {
		tokens = append(tokens, model.Token{
			Kind:   model.TokenOptionName,
			Values: []string{exp.pending.PrimaryName()},
			Raw:    word,
		})
		return tokens, exp.pending, exp.pending.PrimaryName(), nil
	}
	return tokens, nil, "", nil
}

// missingValueErr is the adjacency failure shared by the separator,
// option-word and end-of-argv cases.
func missingValueErr(program, scopePath, option string) error {
	return &ArgumentOrderError{
		Program: program,
		Scope:   scopePath,
		Option:  option,
		Detail:  "expects a value but none follows",
	}
}
