package template

import "fmt"

// AmbiguityError reports a command format that cannot be compiled into
// a deterministic reference tree. The cache builder records the reason
// and excludes the operation from the group's compiled set instead of
// guessing; other operations of the group are unaffected.
type AmbiguityError struct {
	// Operation names the operation whose format failed.
	Operation string

	// Format is the offending command format text.
	Format string

	// Detail is the human-readable description.
	Detail string
}

// Error satisfies the error interface.
func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous template for operation %q (%q): %s", e.Operation, e.Format, e.Detail)
}

// ambiguity is the package-internal constructor.
func ambiguity(operation, format, detail string) *AmbiguityError {
	return &AmbiguityError{Operation: operation, Format: format, Detail: detail}
}
