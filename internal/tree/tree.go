// Package tree folds token streams into canonical command trees.
//
// The builder groups a scope's tokens into CommandArgs: same-named
// flags collapse into one argument with an accumulated repeat count,
// same-named options collect their values in encounter order, bare
// words gather into a single positional argument named by the scope's
// declaration, and everything after "--" forms one extra argument on
// the deepest node. Each node's arguments are then put into a canonical
// order, so any two interleavings of the same command build equal trees.
package tree

import (
	"fmt"
	"sort"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// Build folds tokens into the canonical command tree under the grammar
// they were tokenized with. The token stream must start with a program
// token; subcommand tokens open child nodes and the scope cursor never
// returns, so the result is a chain of nodes mirroring the descent.
//
// Build trusts the tokenizer's guarantees (option values follow their
// option name, subcommand words are declared); a stream violating them
// fails with a plain error.
func Build(tokens []model.Token, g *grammar.Grammar) (*model.CommandNode, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty token stream")
	}
	if tokens[0].Kind != model.TokenProgram {
		return nil, fmt.Errorf("token stream starts with %q, not a program token", tokens[0].Kind)
	}

	root := &model.CommandNode{Name: tokens[0].Value()}
	b := newNodeBuilder(root)
	sc := g.RootScope()

	for _, tok := range tokens[1:] {
		// Anything but a value closes the option collecting values.
		if tok.Kind != model.TokenOptionValue && tok.Kind != model.TokenOptionName {
			b.pendingOpt = -1
		}

		switch tok.Kind {
		case model.TokenSubcommand:
			sub := sc.FindSubcommand(tok.Value())
			if sub == nil {
				return nil, fmt.Errorf("subcommand %q is not declared in scope", tok.Value())
			}
			sc = sub.Scope()
			child := &model.CommandNode{Name: sub.Name}
			b.node.Subcommand = child
			b = newNodeBuilder(child)

		case model.TokenFlag:
			b.addFlag(tok.Value(), max(tok.Repeat, 1))

		case model.TokenOptionName:
			b.openOption(tok.Value())

		case model.TokenOptionValue:
			if b.pendingOpt < 0 {
				return nil, fmt.Errorf("option value %q has no preceding option", tok.Value())
			}
			arg := &b.node.Arguments[b.pendingOpt]
			arg.Values = append(arg.Values, tok.Values...)

		case model.TokenPositional:
			pos := sc.Positional()
			if pos == nil {
				return nil, fmt.Errorf("positional word %q in a scope without a positional declaration", tok.Value())
			}
			b.addPositional(pos.Name, tok.Values)

		case model.TokenSeparator:
			// Structural marker only; the extra tokens carry the words.

		case model.TokenExtra:
			b.addExtra(tok.Values)

		case model.TokenProgram:
			return nil, fmt.Errorf("unexpected second program token %q", tok.Value())

		default:
			return nil, fmt.Errorf("unexpected token kind %q", tok.Kind)
		}
	}

	for node := root; node != nil; node = node.Subcommand {
		canonicalize(node)
	}
	return root, nil
}

// nodeBuilder accumulates the arguments of one tree node. Arguments are
// addressed by index rather than pointer because appends may move the
// backing array.
type nodeBuilder struct {
	node       *model.CommandNode
	pendingOpt int            // index of the option collecting values, -1 when closed
	positional int            // index of the positional argument, -1 until first word
	extra      int            // index of the extra argument, -1 until first word
	flags      map[string]int // primary flag name → argument index
	options    map[string]int // primary option name → argument index
}

func newNodeBuilder(node *model.CommandNode) *nodeBuilder {
	return &nodeBuilder{
		node:       node,
		pendingOpt: -1,
		positional: -1,
		extra:      -1,
		flags:      make(map[string]int),
		options:    make(map[string]int),
	}
}

// addFlag records a flag occurrence, accumulating the repeat count when
// the flag was already seen in this scope.
func (b *nodeBuilder) addFlag(name string, repeat int) {
	if at, seen := b.flags[name]; seen {
		b.node.Arguments[at].Repeat += repeat
		return
	}
	b.flags[name] = len(b.node.Arguments)
	b.node.Arguments = append(b.node.Arguments, model.CommandArg{
		Kind:       model.ArgFlag,
		OptionName: name,
		Repeat:     repeat,
	})
}

// openOption marks the named option as the one collecting subsequent
// value tokens, reusing the existing argument when the option repeats.
func (b *nodeBuilder) openOption(name string) {
	if at, seen := b.options[name]; seen {
		b.pendingOpt = at
		return
	}
	b.pendingOpt = len(b.node.Arguments)
	b.options[name] = b.pendingOpt
	b.node.Arguments = append(b.node.Arguments, model.CommandArg{
		Kind:       model.ArgOption,
		OptionName: name,
	})
}

// addPositional appends words to the scope's single positional argument,
// creating it on first use under the declared name.
func (b *nodeBuilder) addPositional(name string, values []string) {
	if b.positional < 0 {
		b.positional = len(b.node.Arguments)
		b.node.Arguments = append(b.node.Arguments, model.CommandArg{
			Kind:       model.ArgPositional,
			OptionName: name,
		})
	}
	arg := &b.node.Arguments[b.positional]
	arg.Values = append(arg.Values, values...)
}

// addExtra appends pass-through words to the node's single extra
// argument.
func (b *nodeBuilder) addExtra(values []string) {
	if b.extra < 0 {
		b.extra = len(b.node.Arguments)
		b.node.Arguments = append(b.node.Arguments, model.CommandArg{Kind: model.ArgExtra})
	}
	arg := &b.node.Arguments[b.extra]
	arg.Values = append(arg.Values, values...)
}

// kindRank orders argument kinds within a node: flags, then options,
// then the positional, then extras.
func kindRank(k model.ArgKind) int {
	switch k {
	case model.ArgFlag:
		return 0
	case model.ArgOption:
		return 1
	case model.ArgPositional:
		return 2
	default:
		return 3
	}
}

// canonicalize sorts a node's arguments by kind and option name. Value
// order within each argument is preserved; only sibling order is
// normalized, which is what makes interleaved spellings of the same
// command compare equal.
func canonicalize(node *model.CommandNode) {
	sort.SliceStable(node.Arguments, func(i, j int) bool {
		a, b := &node.Arguments[i], &node.Arguments[j]
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		return a.OptionName < b.OptionName
	})
}
