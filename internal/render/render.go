// Package render turns a matched operation back into a command line by
// substituting bound parameter values into a destination group's
// command format. Rendering is plain text substitution: multi-value
// parameters join with single spaces and nothing is quoted, matching
// what the format author wrote literally.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohanChane/cmdbridge/internal/model"
)

// placeholderPattern matches a {param} reference. The character set
// mirrors model.ValidateIdentifier.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9][a-zA-Z0-9_-]*)\}`)

// Target is the pair of formats a destination group declares for one
// operation. CmdFormat is what templates compile from and what rendering
// uses by default; FinalCmdFormat, when declared, replaces it at the
// terminal rendering step only, so it can add wrappers (sudo, -y) that
// must never participate in matching.
type Target struct {
	// CmdFormat is the matchable command format.
	CmdFormat string `json:"cmdFormat"`

	// FinalCmdFormat optionally overrides CmdFormat when rendering the
	// final output. Empty means no override.
	FinalCmdFormat string `json:"finalCmdFormat,omitempty"`
}

// Format returns the format rendering should use: the final override
// when declared, else the matchable format.
func (t Target) Format() string {
	if t.FinalCmdFormat != "" {
		return t.FinalCmdFormat
	}
	return t.CmdFormat
}

// MissingParameterError reports a placeholder the operation requires
// but no value was bound for.
type MissingParameterError struct {
	// Operation names the operation being rendered.
	Operation string

	// Param is the unbound parameter name.
	Param string

	// Format is the command format being rendered.
	Format string
}

// Error satisfies the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("operation %q requires parameter %q, which has no bound value", e.Operation, e.Param)
}

// Render substitutes params into format. A placeholder with no bound
// value fails when the operation declares it and passes through
// verbatim otherwise, so callers can detect and report leftovers.
func Render(format string, params map[string][]string, op model.Operation) (string, error) {
	var b strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(format, -1) {
		name := format[loc[2]:loc[3]]
		values, bound := params[name]
		if !bound {
			if op.HasParam(name) {
				return "", &MissingParameterError{Operation: op.Name, Param: name, Format: format}
			}
			continue
		}
		b.WriteString(format[last:loc[0]])
		b.WriteString(strings.Join(values, " "))
		last = loc[1]
	}
	b.WriteString(format[last:])
	return strings.TrimSpace(b.String()), nil
}

// Placeholders returns the parameter names a format references, in
// order of first appearance.
func Placeholders(format string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(format, -1) {
		if name := match[1]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
