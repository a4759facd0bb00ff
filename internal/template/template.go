// Package template compiles command formats into reference trees.
//
// A command format is a literal command line with {param} placeholders,
// e.g. "pacman -S {pkgs}". Synthesis replaces each placeholder with
// generated sentinel words, parses the resulting argv under the
// destination program's own grammar, and then lifts the command tree
// into a template tree whose sentinel values become wildcard slots. The
// placeholder's position therefore survives every normalization the
// real parser applies (bundle expansion, alias canonicalization, value
// grouping), which is what makes template matching structural instead
// of textual.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
	"github.com/JohanChane/cmdbridge/internal/tokenizer"
	"github.com/JohanChane/cmdbridge/internal/tree"
)

// placeholderPattern matches a {param} reference. The character set
// mirrors model.ValidateIdentifier.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9][a-zA-Z0-9_-]*)\}`)

// sentinelRun is the group of sentinel words standing in for one
// placeholder occurrence: one word for single-value parameters, two for
// open-ended ones so the lifted slot records the unbounded cardinality.
type sentinelRun struct {
	param   string
	card    model.Cardinality
	words   []string
	binding *model.Binding // set when the run is found in the parsed tree
}

// Synthesize compiles one operation's command format into a Template
// under the destination program's grammar. declIndex is the operation's
// declaration position within its group file; it breaks matching ties.
//
// Synthesis fails with an AmbiguityError when the format cannot produce
// a deterministic reference tree: a placeholder embedded inside a
// longer word, a placeholder that is not a parameter of the operation,
// an open-ended placeholder whose value span would be ambiguous, or a
// format that does not parse under its own grammar.
func Synthesize(op model.Operation, declIndex int, cmdFormat string, g *grammar.Grammar) (*model.Template, error) {
	words := strings.Fields(cmdFormat)
	if len(words) == 0 {
		return nil, ambiguity(op.Name, cmdFormat, "command format is empty")
	}
	if words[0] != g.Program {
		return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("command format must start with program %q, got %q", g.Program, words[0]))
	}

	argv := make([]string, 0, len(words)+2)
	byWord := make(map[string]*sentinelRun)
	var runs []*sentinelRun

	for _, word := range words {
		loc := placeholderPattern.FindStringSubmatchIndex(word)
		if loc == nil {
			argv = append(argv, word)
			continue
		}
		if loc[0] != 0 || loc[1] != len(word) {
			return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("placeholder %s is embedded inside word %q; its parse shape would depend on the runtime value", word[loc[0]:loc[1]], word))
		}

		param := word[loc[2]:loc[3]]
		if !op.HasParam(param) {
			return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("placeholder {%s} is not a parameter of operation %q", param, op.Name))
		}
		card, err := placeholderCardinality(g, param)
		if err != nil {
			return nil, ambiguity(op.Name, cmdFormat, err.Error())
		}

		run := &sentinelRun{param: param, card: card}
		count := 1
		if card.Unbounded() {
			count = 2
		}
		for i := 0; i < count; i++ {
			s, err := newSentinel(cmdFormat)
			if err != nil {
				return nil, ambiguity(op.Name, cmdFormat, err.Error())
			}
			run.words = append(run.words, s)
			byWord[s] = run
		}
		runs = append(runs, run)
		argv = append(argv, run.words...)
	}

	tokens, err := tokenizer.Tokenize(argv, g)
	if err != nil {
		return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("command format does not parse under the %q grammar: %v", g.Program, err))
	}
	node, err := tree.Build(tokens, g)
	if err != nil {
		return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("command format does not build under the %q grammar: %v", g.Program, err))
	}

	root, err := lift(op.Name, cmdFormat, node, g, byWord)
	if err != nil {
		return nil, err
	}

	// Bindings are reported in placeholder order of the format, not tree
	// order. A format without placeholders gets nil, which survives
	// serialization unchanged where an empty slice would not.
	var bindings []model.Binding
	for _, run := range runs {
		if run.binding == nil {
			return nil, ambiguity(op.Name, cmdFormat, fmt.Sprintf("placeholder {%s} did not survive parsing", run.param))
		}
		bindings = append(bindings, *run.binding)
	}

	return &model.Template{
		Operation: op.Name,
		DeclIndex: declIndex,
		Root:      root,
		Bindings:  bindings,
	}, nil
}

// placeholderCardinality resolves how many values a placeholder stands
// for: the cardinality of the destination grammar's argument with the
// same name, searched root scope first and then every subcommand scope.
// An undeclared name defaults to exactly one value. A name declared as
// a value-less flag cannot hold a value at all and is rejected.
func placeholderCardinality(g *grammar.Grammar, param string) (model.Cardinality, error) {
	arg := findNamedArgument(g.RootScope(), param)
	if arg == nil {
		return model.CardinalityOne, nil
	}
	if arg.IsFlag() {
		return "", fmt.Errorf("parameter %q is declared as a value-less flag in the %q grammar", param, g.Program)
	}
	return arg.Cardinality, nil
}

// findNamedArgument searches a scope and all nested scopes for an
// argument declaration by name.
func findNamedArgument(sc grammar.Scope, name string) *grammar.Argument {
	if arg := sc.FindArgumentByName(name); arg != nil {
		return arg
	}
	for i := range sc.Subcommands {
		if arg := findNamedArgument(sc.Subcommands[i].Scope(), name); arg != nil {
			return arg
		}
	}
	return nil
}

// newSentinel generates a value word guaranteed absent from the format
// text. The uuid body keeps sentinels from colliding with subcommand
// names, option spellings or each other.
func newSentinel(format string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		s := "p" + strings.ReplaceAll(uuid.NewString(), "-", "")
		if !strings.Contains(format, s) {
			return s, nil
		}
	}
	return "", fmt.Errorf("could not generate a sentinel absent from the format text")
}

// lift converts the parsed sentinel tree into a template tree, turning
// each sentinel run into a wildcard slot and recording its binding.
func lift(opName, format string, node *model.CommandNode, g *grammar.Grammar, byWord map[string]*sentinelRun) (*model.TemplateNode, error) {
	var root, tail *model.TemplateNode
	sc := g.RootScope()

	depth := 0
	for cur := node; cur != nil; cur = cur.Subcommand {
		if depth > 0 {
			sub := sc.FindSubcommand(cur.Name)
			if sub == nil {
				return nil, ambiguity(opName, format, fmt.Sprintf("subcommand %q vanished from the grammar during synthesis", cur.Name))
			}
			sc = sub.Scope()
		}

		tn := &model.TemplateNode{Name: cur.Name}
		for i := range cur.Arguments {
			ta, err := liftArgument(opName, format, &cur.Arguments[i], depth, len(sc.Subcommands) > 0, byWord)
			if err != nil {
				return nil, err
			}
			tn.Arguments = append(tn.Arguments, *ta)
		}

		if root == nil {
			root = tn
		} else {
			tail.Subcommand = tn
		}
		tail = tn
		depth++
	}
	return root, nil
}

// liftArgument converts one parsed argument into a template argument.
// scopeHasSubs marks scopes where an open-ended option value could be
// mistaken for a subcommand word at match time; such placeholders are
// rejected rather than matched unpredictably.
func liftArgument(opName, format string, arg *model.CommandArg, depth int, scopeHasSubs bool, byWord map[string]*sentinelRun) (*model.TemplateArg, error) {
	ta := &model.TemplateArg{Kind: arg.Kind, OptionName: arg.OptionName, Repeat: arg.Repeat}

	for i := 0; i < len(arg.Values); {
		v := arg.Values[i]
		run, ok := byWord[v]
		if !ok {
			ta.Slots = append(ta.Slots, model.LiteralSlot(v))
			i++
			continue
		}

		if run.binding != nil || v != run.words[0] {
			return nil, ambiguity(opName, format, fmt.Sprintf("values of placeholder {%s} were separated during parsing", run.param))
		}
		for k, w := range run.words {
			if i+k >= len(arg.Values) || arg.Values[i+k] != w {
				return nil, ambiguity(opName, format, fmt.Sprintf("values of placeholder {%s} were separated during parsing", run.param))
			}
		}

		run.binding = &model.Binding{
			Param:      run.param,
			Depth:      depth,
			Kind:       arg.Kind,
			OptionName: arg.OptionName,
			Slot:       len(ta.Slots),
		}
		ta.Slots = append(ta.Slots, model.WildcardSlot(run.param, run.card))
		i += len(run.words)
	}

	for j := range ta.Slots {
		slot := &ta.Slots[j]
		if !slot.IsWildcard() || !slot.Cardinality.Unbounded() {
			continue
		}
		if j != len(ta.Slots)-1 {
			return nil, ambiguity(opName, format, fmt.Sprintf("open-ended placeholder {%s} must be the final value of its argument", slot.Param))
		}
		if ta.Kind == model.ArgOption && scopeHasSubs {
			return nil, ambiguity(opName, format, fmt.Sprintf("values of open-ended placeholder {%s} could be mistaken for subcommand words", slot.Param))
		}
	}
	return ta, nil
}
