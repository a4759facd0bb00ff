package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ParserStyle selects the tokenization rule set for a program's grammar.
// The two styles cover the two dominant command-line conventions:
//
//	getopt   — pacman-style: short flags bundle (-Syu), options take their
//	           value from the next argv word, no subcommands.
//	argparse — apt/git-style: subcommands open nested scopes, long options
//	           dominate, bundling still applies to short flags.
type ParserStyle string

const (
	// StyleGetopt tokenizes argv with the classic getopt(3) conventions.
	StyleGetopt ParserStyle = "getopt"

	// StyleArgparse tokenizes argv with subcommand-aware conventions.
	StyleArgparse ParserStyle = "argparse"
)

// String returns the string representation of ParserStyle.
// This method satisfies the fmt.Stringer interface.
func (s ParserStyle) String() string {
	return string(s)
}

// IsValid checks whether the ParserStyle value is one of the
// predefined valid styles.
func (s ParserStyle) IsValid() bool {
	switch s {
	case StyleGetopt, StyleArgparse:
		return true
	default:
		return false
	}
}

// ParseParserStyle converts a string to a ParserStyle.
// Returns an error if the string does not match any valid style.
func ParseParserStyle(s string) (ParserStyle, error) {
	style := ParserStyle(strings.ToLower(s))
	if !style.IsValid() {
		return "", fmt.Errorf("invalid parser style: %q (valid: getopt, argparse)", s)
	}
	return style, nil
}

// Cardinality expresses how many values an argument carries, using the
// nargs notation from grammar configuration files.
type Cardinality string

const (
	// CardinalityZero marks a boolean flag: the argument never takes a value.
	CardinalityZero Cardinality = "0"

	// CardinalityOne marks an option or positional with exactly one value.
	CardinalityOne Cardinality = "1"

	// CardinalityOneOrMore marks an argument with at least one value.
	CardinalityOneOrMore Cardinality = "+"

	// CardinalityZeroOrMore marks an argument with any number of values,
	// including none.
	CardinalityZeroOrMore Cardinality = "*"
)

// String returns the nargs notation of the Cardinality.
func (c Cardinality) String() string {
	return string(c)
}

// IsValid checks whether the Cardinality value is one of the four
// supported nargs forms. Other historical nargs forms ("?", exact
// integers) are intentionally rejected at configuration load.
func (c Cardinality) IsValid() bool {
	switch c {
	case CardinalityZero, CardinalityOne, CardinalityOneOrMore, CardinalityZeroOrMore:
		return true
	default:
		return false
	}
}

// ParseCardinality converts an nargs string to a Cardinality.
// Returns an error if the string does not match any supported form.
func ParseCardinality(s string) (Cardinality, error) {
	card := Cardinality(s)
	if !card.IsValid() {
		return "", fmt.Errorf("invalid nargs %q (valid: \"0\", \"1\", \"+\", \"*\")", s)
	}
	return card, nil
}

// TakesValue reports whether arguments of this cardinality consume
// value words at all. Only CardinalityZero does not.
func (c Cardinality) TakesValue() bool {
	return c != CardinalityZero
}

// Unbounded reports whether the cardinality places no upper limit on
// the number of values ("+" and "*").
func (c Cardinality) Unbounded() bool {
	return c == CardinalityOneOrMore || c == CardinalityZeroOrMore
}

// AcceptsCount reports whether n values satisfy this cardinality.
func (c Cardinality) AcceptsCount(n int) bool {
	switch c {
	case CardinalityZero:
		return n == 0
	case CardinalityOne:
		return n == 1
	case CardinalityOneOrMore:
		return n >= 1
	case CardinalityZeroOrMore:
		return n >= 0
	default:
		return false
	}
}

// TokenKind classifies a single token produced by tokenizing an argv
// sequence against a grammar.
type TokenKind string

const (
	// TokenProgram is the program word itself, always the first token.
	TokenProgram TokenKind = "program"

	// TokenSubcommand is a word recognized as a subcommand in the current
	// scope. Its value is the canonical subcommand name even when the
	// user typed an alias.
	TokenSubcommand TokenKind = "subcommand"

	// TokenPositional is a bare word consumed by the scope's positional
	// argument declaration.
	TokenPositional TokenKind = "positional"

	// TokenOptionName is an option that takes a value (e.g. "-f", "--file").
	// Its value is the primary option name, so aliases compare equal.
	TokenOptionName TokenKind = "option_name"

	// TokenOptionValue is the value word bound to the preceding
	// TokenOptionName.
	TokenOptionValue TokenKind = "option_value"

	// TokenFlag is a zero-value option. Repeated flags collapse into a
	// single token with Repeat > 1.
	TokenFlag TokenKind = "flag"

	// TokenSeparator is the literal "--" word: everything after it is
	// passed through untyped.
	TokenSeparator TokenKind = "separator"

	// TokenExtra is a word appearing after the "--" separator.
	TokenExtra TokenKind = "extra"
)

// String returns the string representation of TokenKind.
func (k TokenKind) String() string {
	return string(k)
}

// IsValid checks whether the TokenKind is one of the predefined kinds.
func (k TokenKind) IsValid() bool {
	switch k {
	case TokenProgram, TokenSubcommand, TokenPositional, TokenOptionName,
		TokenOptionValue, TokenFlag, TokenSeparator, TokenExtra:
		return true
	default:
		return false
	}
}

// Token is one element of the tokenized form of an argv sequence.
// Tokens are an intermediate representation: the tree builder folds them
// into CommandArgs immediately, but they surface in debug logging and in
// tokenizer tests.
type Token struct {
	// Kind classifies the token.
	Kind TokenKind `json:"kind"`

	// Values carries the token's normalized payload: the canonical
	// subcommand name, the primary option name, the positional word, etc.
	// Empty for separator tokens.
	Values []string `json:"values,omitempty"`

	// Raw is the argv text the token was derived from. For tokens expanded
	// out of a short bundle ("-Syy"), Raw is the whole bundle.
	Raw string `json:"raw"`

	// Repeat counts how many occurrences collapsed into this token.
	// Only meaningful for flag tokens; 1 for a flag seen once.
	Repeat int `json:"repeat,omitempty"`
}

// Value returns the first value of the token, or "" if it has none.
// Most token kinds carry exactly one value.
func (t Token) Value() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[0]
}

// ArgKind classifies an argument attached to a CommandNode.
type ArgKind string

const (
	// ArgFlag is a zero-value option, possibly repeated.
	ArgFlag ArgKind = "flag"

	// ArgOption is an option carrying one or more values.
	ArgOption ArgKind = "option"

	// ArgPositional is the scope's positional values, grouped into a
	// single ordered argument regardless of interleaving.
	ArgPositional ArgKind = "positional"

	// ArgExtra is the pass-through words following the "--" separator.
	ArgExtra ArgKind = "extra"
)

// String returns the string representation of ArgKind.
func (k ArgKind) String() string {
	return string(k)
}

// IsValid checks whether the ArgKind is one of the predefined kinds.
func (k ArgKind) IsValid() bool {
	switch k {
	case ArgFlag, ArgOption, ArgPositional, ArgExtra:
		return true
	default:
		return false
	}
}

// CommandArg is one argument attached to a command tree node. Order among
// sibling arguments is NOT significant: "install -y vim" and
// "install vim -y" produce equal argument sets. What identifies an
// argument during matching is the (Kind, OptionName, Repeat) triple.
type CommandArg struct {
	// Kind classifies the argument.
	Kind ArgKind `json:"kind"`

	// OptionName identifies the argument within its node:
	// the primary option name for flags and options (first long alias,
	// else the first alias, so "-S" and "--sync" collapse to one name),
	// the configured argument name for positionals, and "" for extras.
	OptionName string `json:"optionName,omitempty"`

	// Values holds the argument's values in the order they appeared.
	// Empty for flags.
	Values []string `json:"values,omitempty"`

	// Repeat counts how many times a flag occurred ("-yy" → 2).
	// Zero for non-flag kinds.
	Repeat int `json:"repeat,omitempty"`
}

// Identity returns the comparison key used for multiset matching of
// arguments: kind, option name and repeat count, never the values.
func (a *CommandArg) Identity() string {
	return fmt.Sprintf("%s|%s|%d", a.Kind, a.OptionName, a.Repeat)
}

// CommandNode is one level of the canonical command tree. A node has at
// most ONE subcommand child; a parsed command is therefore a chain
// (program → subcommand → sub-subcommand …), never a sibling list.
type CommandNode struct {
	// Name is the canonical name of the program or subcommand.
	// Aliases are resolved before the node is built.
	Name string `json:"name"`

	// Arguments is the unordered set of arguments attached to this scope.
	Arguments []CommandArg `json:"arguments,omitempty"`

	// Subcommand is the single nested scope, or nil at the deepest level.
	Subcommand *CommandNode `json:"subcommand,omitempty"`
}

// At returns the node depth levels below n (0 returns n itself), or nil
// when the chain is shorter than depth.
func (n *CommandNode) At(depth int) *CommandNode {
	cur := n
	for i := 0; i < depth && cur != nil; i++ {
		cur = cur.Subcommand
	}
	return cur
}

// Deepest returns the last node of the subcommand chain.
func (n *CommandNode) Deepest() *CommandNode {
	cur := n
	for cur.Subcommand != nil {
		cur = cur.Subcommand
	}
	return cur
}

// Depth returns the number of subcommand descents below n.
func (n *CommandNode) Depth() int {
	d := 0
	for cur := n; cur.Subcommand != nil; cur = cur.Subcommand {
		d++
	}
	return d
}

// FindArgument returns the argument with the given kind and option name,
// or nil if the node has none. Option names are compared after primary
// name normalization, so callers pass primary names.
func (n *CommandNode) FindArgument(kind ArgKind, optionName string) *CommandArg {
	for i := range n.Arguments {
		if n.Arguments[i].Kind == kind && n.Arguments[i].OptionName == optionName {
			return &n.Arguments[i]
		}
	}
	return nil
}

// String reconstructs an approximate command line from the tree.
// Intended for logs and error messages only: values are not quoted.
func (n *CommandNode) String() string {
	var b strings.Builder
	for cur := n; cur != nil; cur = cur.Subcommand {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(cur.Name)
		for i := range cur.Arguments {
			arg := &cur.Arguments[i]
			switch arg.Kind {
			case ArgFlag:
				for r := 0; r < max(arg.Repeat, 1); r++ {
					b.WriteByte(' ')
					b.WriteString(arg.OptionName)
				}
			case ArgOption:
				b.WriteByte(' ')
				b.WriteString(arg.OptionName)
				for _, v := range arg.Values {
					b.WriteByte(' ')
					b.WriteString(v)
				}
			case ArgPositional:
				for _, v := range arg.Values {
					b.WriteByte(' ')
					b.WriteString(v)
				}
			case ArgExtra:
				b.WriteString(" --")
				for _, v := range arg.Values {
					b.WriteByte(' ')
					b.WriteString(v)
				}
			}
		}
	}
	return b.String()
}

// identRegex validates operation, parameter and group names: word
// characters and hyphens, starting with a letter or digit.
var identRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateIdentifier checks that a configuration-supplied name (operation,
// parameter, group or domain name) is usable as an identifier. These names
// appear inside {param} placeholders and as file names, so the character
// set is deliberately narrow.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if !identRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must contain only alphanumerics, underscores and hyphens, and start with an alphanumeric", name)
	}
	return nil
}
