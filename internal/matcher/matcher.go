// Package matcher recovers the (operation, parameters) pair behind a
// parsed command by structural comparison against compiled templates.
//
// A candidate tree matches a template when every level agrees on name
// and subcommand presence and the argument sets pair one-to-one on
// (kind, option name, repeat), with literal slots comparing exactly and
// wildcard slots consuming values per their cardinality. When several
// templates match, the most specific one wins: fewer wildcards first,
// then the earlier declaration in the group file. A tie on both keys is
// a configuration defect and surfaces as an AmbiguityError rather than
// an arbitrary pick.
package matcher

import (
	"sort"

	"github.com/JohanChane/cmdbridge/internal/model"
)

// Result is the outcome of matching one candidate tree. A candidate
// matching no template is a normal result, not an error: Matched is
// false and the other fields are zero.
type Result struct {
	// Matched reports whether any template matched.
	Matched bool `json:"matched"`

	// Operation is the winning template's operation name.
	Operation string `json:"operation,omitempty"`

	// Params holds the values captured by the winning template's
	// wildcards, keyed by parameter name.
	Params map[string][]string `json:"params,omitempty"`
}

// Match compares the candidate tree against every template and resolves
// the winner. Templates are evaluated in slice order, which the cache
// builder keeps aligned with declaration order.
func Match(candidate *model.CommandNode, templates []*model.Template) (Result, error) {
	var winners []*model.Template
	for _, tpl := range templates {
		if matches(candidate, tpl.Root) {
			winners = append(winners, tpl)
		}
	}
	if len(winners) == 0 {
		return Result{}, nil
	}

	sort.SliceStable(winners, func(i, j int) bool {
		wi, wj := winners[i].WildcardCount(), winners[j].WildcardCount()
		if wi != wj {
			return wi < wj
		}
		return winners[i].DeclIndex < winners[j].DeclIndex
	})

	best := winners[0]
	if len(winners) > 1 {
		next := winners[1]
		if next.WildcardCount() == best.WildcardCount() && next.DeclIndex == best.DeclIndex {
			tied := []string{best.Operation}
			for _, w := range winners[1:] {
				if w.WildcardCount() == best.WildcardCount() && w.DeclIndex == best.DeclIndex {
					tied = append(tied, w.Operation)
				}
			}
			return Result{}, &AmbiguityError{Command: candidate.String(), Operations: tied}
		}
	}

	return Result{
		Matched:   true,
		Operation: best.Operation,
		Params:    extract(candidate, best),
	}, nil
}

// matches walks both chains level by level.
func matches(node *model.CommandNode, tpl *model.TemplateNode) bool {
	for node != nil && tpl != nil {
		if node.Name != tpl.Name {
			return false
		}
		if !argumentsMatch(node.Arguments, tpl.Arguments) {
			return false
		}
		node, tpl = node.Subcommand, tpl.Subcommand
	}
	return node == nil && tpl == nil
}

// argumentsMatch pairs the argument sets one-to-one. Identities are
// unique within a node, so equal length plus a hit for every template
// argument implies a bijection.
func argumentsMatch(args []model.CommandArg, tplArgs []model.TemplateArg) bool {
	if len(args) != len(tplArgs) {
		return false
	}
	for i := range tplArgs {
		ta := &tplArgs[i]
		ca := findArgument(args, ta.Kind, ta.OptionName)
		if ca == nil || ca.Repeat != ta.Repeat {
			return false
		}
		if !slotsMatch(ta.Slots, ca.Values) {
			return false
		}
	}
	return true
}

func findArgument(args []model.CommandArg, kind model.ArgKind, optionName string) *model.CommandArg {
	for i := range args {
		if args[i].Kind == kind && args[i].OptionName == optionName {
			return &args[i]
		}
	}
	return nil
}

// slotsMatch walks the template slots over the candidate values.
// Every slot before an open-ended wildcard consumes exactly one value
// (synthesis rejects any other arrangement), so the cursor position
// equals the slot index throughout.
func slotsMatch(slots []model.ValueSlot, values []string) bool {
	i := 0
	for s := range slots {
		slot := &slots[s]
		switch {
		case !slot.IsWildcard():
			if i >= len(values) || values[i] != slot.Literal {
				return false
			}
			i++
		case slot.Cardinality.Unbounded():
			return slot.Cardinality.AcceptsCount(len(values) - i)
		default:
			if i >= len(values) {
				return false
			}
			i++
		}
	}
	return i == len(values)
}

// extract reads the captured values for every binding of the winning
// template out of the candidate tree. A parameter bound more than once
// keeps the last binding's values.
func extract(candidate *model.CommandNode, tpl *model.Template) map[string][]string {
	params := make(map[string][]string)
	for _, b := range tpl.Bindings {
		node := candidate.At(b.Depth)
		tplNode := tpl.Root.At(b.Depth)
		if node == nil || tplNode == nil {
			continue
		}
		arg := node.FindArgument(b.Kind, b.OptionName)
		tplArg := tplNode.FindArgument(b.Kind, b.OptionName)
		if arg == nil || tplArg == nil || b.Slot >= len(tplArg.Slots) {
			continue
		}

		if tplArg.Slots[b.Slot].Cardinality.Unbounded() {
			vals := arg.Values[min(b.Slot, len(arg.Values)):]
			out := make([]string, len(vals))
			copy(out, vals)
			params[b.Param] = out
			continue
		}
		if b.Slot < len(arg.Values) {
			params[b.Param] = []string{arg.Values[b.Slot]}
		}
	}
	return params
}
