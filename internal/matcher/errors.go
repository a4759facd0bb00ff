package matcher

import (
	"fmt"
	"strings"
)

// AmbiguityError reports a candidate command matching two or more
// templates that tie on both specificity keys (wildcard count and
// declaration index). This indicates overlapping operation mappings in
// the group configuration and is surfaced instead of picking one.
type AmbiguityError struct {
	// Command is the candidate's approximate command-line form.
	Command string

	// Operations names the tied operations.
	Operations []string
}

// Error satisfies the error interface.
func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("command %q matches operations %s with equal specificity", e.Command, strings.Join(e.Operations, ", "))
}
