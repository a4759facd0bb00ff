// Package model defines the domain types and value objects for the
// cmdbridge CLI.
//
// This package contains pure data structures with no external dependencies:
// the tokens produced by the tokenizers, the canonical command tree
// (CommandNode) that both live commands and compiled templates share, and
// the compiled template representation (Template) whose value slots are
// tagged either Literal or Wildcard. Compiled templates are what the cache
// persists and what the matcher consumes, so their shapes carry
// serialization tags.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
