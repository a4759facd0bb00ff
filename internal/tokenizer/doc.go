// Package tokenizer converts argv word sequences into typed token
// streams under a program grammar.
//
// Two rule sets are implemented behind one entry point, selected by the
// grammar's parser style:
//
//   - getopt: a single flat scope. Options take their value from the
//     immediately following argv word; flags may interleave anywhere
//     except between an option and its own value.
//   - argparse: subcommand words open nested scopes and tokenization
//     descends with a scope cursor. Option values are consumed by
//     quota, with subcommand words taking priority over further value
//     accumulation once an option's minimum is satisfied.
//
// Both styles share the same word-level conventions: "--opt=value"
// binds the value in place, short words expand as flag bundles
// ("-Syy" → FLAG(-S), FLAG(-y, repeat=2)) where a value-taking letter
// is only legal in last position, and everything after a "--"
// separator passes through as extra words.
//
// Tokenization is a pure function of (argv, grammar): no state is kept
// between calls and identical inputs always produce identical tokens.
// Failures are reported as UnknownTokenError (a word the grammar does
// not declare) or ArgumentOrderError (declared words in an impossible
// arrangement); callers mapping live input treat both as "command not
// recognized" rather than as crashes.
package tokenizer
