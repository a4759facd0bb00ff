package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/JohanChane/cmdbridge/internal/model"
)

// interfaceOperation is the wire form of one operation in a domain
// interface file.
type interfaceOperation struct {
	Description string   `toml:"description" json:"description"`
	Args        []string `toml:"args" json:"args"`
}

// interfaceFile is the wire form of base.toml.
type interfaceFile struct {
	Operations map[string]interfaceOperation `toml:"operations"`
}

// GroupOperation is one operation's command formats in an operation
// group. CmdFormat participates in template compilation and matching;
// FinalCmdFormat, when set, replaces it at rendering time only.
type GroupOperation struct {
	CmdFormat      string `toml:"cmd_format" json:"cmd_format"`
	FinalCmdFormat string `toml:"final_cmd_format" json:"final_cmd_format,omitempty"`
}

// RenderFormat returns the format rendering would use: the final
// override when declared, else the matchable format.
func (o GroupOperation) RenderFormat() string {
	if o.FinalCmdFormat != "" {
		return o.FinalCmdFormat
	}
	return o.CmdFormat
}

// Group is one loaded operation-group file. The group name doubles as
// the program name whose grammar parses the group's command formats.
type Group struct {
	// Domain is the domain the group belongs to.
	Domain string

	// Name is the group name, from the file stem.
	Name string

	// Operations maps operation name to its command formats.
	Operations map[string]GroupOperation

	// Order lists the operation names in file declaration order. TOML
	// tables deserialize into an unordered map, and declaration order is
	// the tie-breaker between templates of equal wildcard count, so it
	// is recovered from the raw bytes instead.
	Order []string
}

// operationHeader matches an [operations.<name>] table header at the
// start of a line. Scanning raw bytes preserves the declaration order
// the map form loses.
var operationHeader = regexp.MustCompile(`(?m)^\s*\[operations\.([A-Za-z0-9_-]+)\]`)

// LoadInterface reads a domain's base.toml and returns its operations
// keyed by name. Operation and parameter names are validated as
// identifiers here so every later placeholder lookup can trust them.
func LoadInterface(path, domain string) (map[string]model.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain interface %s: %w", path, err)
	}

	var file interfaceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid domain interface %s", path),
			err,
		)
	}

	ops := make(map[string]model.Operation, len(file.Operations))
	for name, op := range file.Operations {
		if err := model.ValidateIdentifier(name); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("domain %q declares invalid operation name %q", domain, name),
				err,
			)
		}
		for _, param := range op.Args {
			if err := model.ValidateIdentifier(param); err != nil {
				return nil, model.WrapCLIError(
					model.ExitConfigError,
					fmt.Sprintf("operation %q in domain %q declares invalid parameter %q", name, domain, param),
					err,
				)
			}
		}
		ops[name] = model.Operation{
			Name:        name,
			Params:      append([]string(nil), op.Args...),
			Description: op.Description,
		}
	}
	return ops, nil
}

// LoadGroup reads one operation-group file. Beyond deserializing the
// [operations.*] tables it scans the raw bytes for their declaration
// order, which template compilation uses as the deterministic
// tie-breaker between equally specific templates.
func LoadGroup(path, domain, name string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operation group %s: %w", path, err)
	}

	var file struct {
		Operations map[string]GroupOperation `toml:"operations"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid operation group %s", path),
			err,
		)
	}

	group := &Group{
		Domain:     domain,
		Name:       name,
		Operations: file.Operations,
		Order:      declarationOrder(data, file.Operations),
	}
	if group.Operations == nil {
		group.Operations = map[string]GroupOperation{}
	}
	return group, nil
}

// declarationOrder recovers the order of [operations.<name>] headers
// from the raw file bytes. Only names the parsed map actually contains
// are kept; any stragglers the scan missed (exotic TOML spellings like
// quoted keys) are appended sorted so the order always covers every
// operation exactly once.
func declarationOrder(data []byte, ops map[string]GroupOperation) []string {
	var order []string
	seen := make(map[string]bool, len(ops))
	for _, m := range operationHeader.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if _, ok := ops[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	var missing []string
	for name := range ops {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return append(order, missing...)
}
