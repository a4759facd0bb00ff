package cache

import "fmt"

// ExcludedError reports a lookup that hit a group omitted from the
// build. It carries the recorded exclusion so callers can surface the
// underlying configuration defect instead of a bare "not found".
type ExcludedError struct {
	Exclusion
}

// Error satisfies the error interface.
func (e *ExcludedError) Error() string {
	return fmt.Sprintf("group %q in domain %q is excluded from the cache: %s", e.Group, e.Domain, e.Reason)
}

// NotFoundError reports a (domain, group) pair with no compiled set
// and no recorded exclusion, which usually means the configuration
// changed since the last refresh.
type NotFoundError struct {
	Domain string
	Group  string
}

// Error satisfies the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no compiled set for group %q in domain %q", e.Group, e.Domain)
}

// NotSupportedError reports an operation with no command format in a
// group: the group exists and compiled, it just does not map this
// operation.
type NotSupportedError struct {
	Domain    string
	Group     string
	Operation string
}

// Error satisfies the error interface.
func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("operation %q is not supported by group %q", e.Operation, e.Group)
}
