package model

import (
	"fmt"
	"strings"
)

// SlotKind distinguishes the two value forms inside a compiled template.
type SlotKind string

const (
	// SlotLiteral is template text that must match a candidate value
	// exactly.
	SlotLiteral SlotKind = "literal"

	// SlotWildcard stands for a {param} placeholder: it matches any
	// candidate value(s) satisfying its cardinality and captures them.
	SlotWildcard SlotKind = "wildcard"
)

// ValueSlot is one value position in a template argument. A slot is
// either a literal or a wildcard, never both.
type ValueSlot struct {
	// Kind tags the slot.
	Kind SlotKind `json:"kind"`

	// Literal is the exact text to match. Set only for literal slots.
	Literal string `json:"literal,omitempty"`

	// Param is the placeholder name the captured values bind to.
	// Set only for wildcard slots.
	Param string `json:"param,omitempty"`

	// Cardinality is how many candidate values the wildcard consumes.
	// Set only for wildcard slots.
	Cardinality Cardinality `json:"cardinality,omitempty"`
}

// LiteralSlot constructs a literal value slot.
func LiteralSlot(text string) ValueSlot {
	return ValueSlot{Kind: SlotLiteral, Literal: text}
}

// WildcardSlot constructs a wildcard value slot for the given parameter.
func WildcardSlot(param string, c Cardinality) ValueSlot {
	return ValueSlot{Kind: SlotWildcard, Param: param, Cardinality: c}
}

// IsWildcard reports whether the slot is a wildcard.
func (s ValueSlot) IsWildcard() bool {
	return s.Kind == SlotWildcard
}

// String returns a compact notation for the slot: the literal text as-is,
// or "{param}" for wildcards.
func (s ValueSlot) String() string {
	if s.IsWildcard() {
		return "{" + s.Param + "}"
	}
	return s.Literal
}

// TemplateArg mirrors CommandArg on the template side: the same
// (Kind, OptionName, Repeat) identity, but values are slots instead of
// plain strings.
type TemplateArg struct {
	// Kind classifies the argument.
	Kind ArgKind `json:"kind"`

	// OptionName is the primary option name, the positional argument
	// name, or "" for extras (same normalization as CommandArg).
	OptionName string `json:"optionName,omitempty"`

	// Repeat is the flag repetition count the candidate must carry.
	Repeat int `json:"repeat,omitempty"`

	// Slots holds the argument's value positions in order. An unbounded
	// wildcard ("+"/"*") may only appear as the final slot.
	Slots []ValueSlot `json:"slots,omitempty"`
}

// Identity returns the comparison key aligned with CommandArg.Identity.
func (a *TemplateArg) Identity() string {
	return fmt.Sprintf("%s|%s|%d", a.Kind, a.OptionName, a.Repeat)
}

// WildcardCount returns the number of wildcard slots in the argument.
func (a *TemplateArg) WildcardCount() int {
	n := 0
	for _, s := range a.Slots {
		if s.IsWildcard() {
			n++
		}
	}
	return n
}

// TemplateNode is one level of a compiled reference tree, mirroring
// CommandNode: at most one subcommand child, unordered argument set.
type TemplateNode struct {
	// Name is the canonical program or subcommand name.
	Name string `json:"name"`

	// Arguments is the unordered set of template arguments at this scope.
	Arguments []TemplateArg `json:"arguments,omitempty"`

	// Subcommand is the single nested scope, or nil.
	Subcommand *TemplateNode `json:"subcommand,omitempty"`
}

// At returns the node depth levels below n (0 returns n itself), or nil
// when the chain is shorter than depth.
func (n *TemplateNode) At(depth int) *TemplateNode {
	cur := n
	for i := 0; i < depth && cur != nil; i++ {
		cur = cur.Subcommand
	}
	return cur
}

// FindArgument returns the template argument with the given kind and
// option name, or nil.
func (n *TemplateNode) FindArgument(kind ArgKind, optionName string) *TemplateArg {
	for i := range n.Arguments {
		if n.Arguments[i].Kind == kind && n.Arguments[i].OptionName == optionName {
			return &n.Arguments[i]
		}
	}
	return nil
}

// String reconstructs an approximate command format from the tree, with
// wildcards rendered as {param}. For logs and error messages.
func (n *TemplateNode) String() string {
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
				for _, s := range arg.Slots {
					b.WriteByte(' ')
					b.WriteString(s.String())
				}
			case ArgPositional, ArgExtra:
				for _, s := range arg.Slots {
					b.WriteByte(' ')
					b.WriteString(s.String())
				}
			}
		}
	}
	return b.String()
}

// Binding records where one placeholder of a template lives in its
// reference tree, so the matcher can extract the corresponding values
// from a matched candidate tree.
type Binding struct {
	// Param is the placeholder name.
	Param string `json:"param"`

	// Depth is the number of subcommand descents from the root to the
	// node holding the bound argument.
	Depth int `json:"depth"`

	// Kind and OptionName identify the bound argument within its node.
	// Together with Depth they survive argument reordering, which a plain
	// argument index would not.
	Kind       ArgKind `json:"kind"`
	OptionName string  `json:"optionName,omitempty"`

	// Slot is the index of the wildcard in the argument's slot list.
	Slot int `json:"slot"`
}

// Template is one compiled operation mapping: the reference tree a
// candidate command is matched against, plus the placeholder bindings
// used for parameter extraction.
type Template struct {
	// Operation is the domain operation this template implements.
	Operation string `json:"operation"`

	// DeclIndex is the operation's declaration position within its group
	// configuration file. It breaks specificity ties deterministically.
	DeclIndex int `json:"declIndex"`

	// Root is the reference tree, rooted at the program node.
	Root *TemplateNode `json:"root"`

	// Bindings locate every wildcard of the tree, in placeholder order of
	// the source cmd_format.
	Bindings []Binding `json:"bindings,omitempty"`
}

// WildcardCount returns the total number of wildcard slots in the whole
// reference tree. Fewer wildcards means a more specific template.
func (t *Template) WildcardCount() int {
	n := 0
	for node := t.Root; node != nil; node = node.Subcommand {
		for i := range node.Arguments {
			n += node.Arguments[i].WildcardCount()
		}
	}
	return n
}
