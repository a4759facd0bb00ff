package model

import "fmt"

// ExitCode defines the CLI process exit codes. These codes let scripts
// and shell integrations programmatically distinguish outcomes; the
// editor-inject code in particular is a documented contract with the
// shell wrapper functions.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration could not be loaded or
	// failed validation (bad TOML, unresolved include reference, ambiguous
	// grammar).
	ExitConfigError ExitCode = 2

	// ExitNotRecognized indicates the input command did not tokenize or
	// parse under the source program's grammar.
	ExitNotRecognized ExitCode = 3

	// ExitNoMatch indicates the command parsed cleanly but matched no
	// operation template in the source group.
	ExitNoMatch ExitCode = 4

	// ExitNotSupported indicates the matched operation has no command
	// format in the destination group.
	ExitNotSupported ExitCode = 5

	// ExitCacheError indicates the compiled template cache could not be
	// built, opened or refreshed.
	ExitCacheError ExitCode = 6

	// ExitEditorInject indicates the mapping succeeded AND the caller
	// should place the rendered command on an interactive editing line
	// instead of treating it as plain output. Shell wrappers key on this
	// exact value; it must never be renumbered.
	ExitEditorInject ExitCode = 113
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
