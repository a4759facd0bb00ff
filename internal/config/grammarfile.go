package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"

	"github.com/JohanChane/cmdbridge/internal/grammar"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// grammarDoc is the wire form of a grammar file. The single top-level
// table is keyed by the program name and must match the file stem, so
// pacman.toml declares [pacman.parser_config] and friends.
type grammarDoc map[string]grammarSection

// grammarSection is one program's grammar declaration. The same
// structure deserializes from TOML and, after comment stripping, from
// JSONC.
type grammarSection struct {
	ParserConfig parserConfig       `toml:"parser_config" json:"parser_config"`
	Arguments    []argumentConfig   `toml:"arguments" json:"arguments"`
	SubCommands  []subCommandConfig `toml:"sub_commands" json:"sub_commands"`
}

// parserConfig selects the tokenization style. ProgramName defaults to
// the table key when omitted.
type parserConfig struct {
	ParserType  string `toml:"parser_type" json:"parser_type"`
	ProgramName string `toml:"program_name" json:"program_name"`
}

// argumentConfig declares one argument. An empty opt list makes it
// positional.
type argumentConfig struct {
	Name        string   `toml:"name" json:"name"`
	Opt         []string `toml:"opt" json:"opt"`
	Nargs       string   `toml:"nargs" json:"nargs"`
	Required    bool     `toml:"required" json:"required"`
	Description string   `toml:"description" json:"description"`
}

// subCommandConfig declares one subcommand scope. A declaration may
// anchor itself with an id and another may inherit its arguments and
// subcommands through include_arguments_and_subcmds; resolution happens
// in grammar.Resolve after loading.
type subCommandConfig struct {
	Name                       string             `toml:"name" json:"name"`
	Alias                      []string           `toml:"alias" json:"alias"`
	ID                         string             `toml:"id" json:"id"`
	IncludeArgumentsAndSubcmds string             `toml:"include_arguments_and_subcmds" json:"include_arguments_and_subcmds"`
	Description                string             `toml:"description" json:"description"`
	Arguments                  []argumentConfig   `toml:"arguments" json:"arguments"`
	SubCommands                []subCommandConfig `toml:"sub_commands" json:"sub_commands"`
}

// LoadGrammar reads one grammar file, deserializes it according to its
// extension (.toml, or .jsonc with comments stripped first), and returns
// the resolved, validated grammar.
//
// The file stem names the program: grammars/pacman.toml must contain a
// top-level [pacman] table. ProgramName inside parser_config may differ
// from the stem (a grammar file can describe a program invoked under
// another word) but defaults to it.
func LoadGrammar(path string) (*grammar.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	var doc grammarDoc
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("invalid TOML: %v", err)}
		}
	case ".jsonc":
		// Strip // and /* */ comments and trailing commas, then parse as
		// plain JSON. Same pipeline either way: both forms deserialize
		// into grammarDoc.
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("invalid JSONC: %v", err)}
		}
	default:
		return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("unsupported grammar file extension %q", ext)}
	}

	section, ok := doc[stem]
	if !ok {
		return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("missing top-level [%s] table", stem)}
	}

	return buildGrammar(stem, section)
}

// buildGrammar converts a deserialized section into a grammar.Grammar
// and runs include resolution and structural validation on it.
func buildGrammar(stem string, section grammarSection) (*grammar.Grammar, error) {
	style, err := model.ParseParserStyle(section.ParserConfig.ParserType)
	if err != nil {
		return nil, &grammar.ConfigError{Program: stem, Detail: err.Error()}
	}

	program := section.ParserConfig.ProgramName
	if program == "" {
		program = stem
	}

	args, err := convertArguments(stem, section.Arguments)
	if err != nil {
		return nil, err
	}
	subs, err := convertSubcommands(stem, section.SubCommands)
	if err != nil {
		return nil, err
	}

	g := &grammar.Grammar{
		Style:       style,
		Program:     program,
		Arguments:   args,
		Subcommands: subs,
	}
	if err := g.Resolve(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// convertArguments maps wire arguments onto grammar arguments, parsing
// each nargs string. nargs is mandatory: defaulting it silently would
// turn a forgotten value count into a value-less flag.
func convertArguments(stem string, configs []argumentConfig) ([]grammar.Argument, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	args := make([]grammar.Argument, 0, len(configs))
	for _, ac := range configs {
		if ac.Nargs == "" {
			return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("argument %q is missing nargs", ac.Name)}
		}
		card, err := model.ParseCardinality(ac.Nargs)
		if err != nil {
			return nil, &grammar.ConfigError{Program: stem, Detail: fmt.Sprintf("argument %q: %v", ac.Name, err)}
		}
		args = append(args, grammar.Argument{
			Name:        ac.Name,
			Options:     append([]string(nil), ac.Opt...),
			Cardinality: card,
			Required:    ac.Required,
			Description: ac.Description,
		})
	}
	return args, nil
}

// convertSubcommands maps wire subcommands onto grammar subcommands,
// recursing through nested declarations.
func convertSubcommands(stem string, configs []subCommandConfig) ([]grammar.Subcommand, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	subs := make([]grammar.Subcommand, 0, len(configs))
	for _, sc := range configs {
		args, err := convertArguments(stem, sc.Arguments)
		if err != nil {
			return nil, err
		}
		nested, err := convertSubcommands(stem, sc.SubCommands)
		if err != nil {
			return nil, err
		}
		subs = append(subs, grammar.Subcommand{
			Name:        sc.Name,
			Aliases:     append([]string(nil), sc.Alias...),
			ID:          sc.ID,
			IncludeRef:  sc.IncludeArgumentsAndSubcmds,
			Description: sc.Description,
			Arguments:   args,
			Subcommands: nested,
		})
	}
	return subs, nil
}
