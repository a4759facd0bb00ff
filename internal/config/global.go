package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/JohanChane/cmdbridge/internal/model"
)

// Global holds the settings from the [global_settings] table of
// config.toml. Both fields are optional; commands that need a domain or
// destination group fall back to them only when the corresponding flag
// is absent.
type Global struct {
	// DefaultDomain is used when no --domain flag is given.
	DefaultDomain string `toml:"default_domain" json:"default_domain,omitempty"`

	// DefaultGroup is the destination group commands are rendered for
	// when no --dest-group flag is given. The source group is never
	// defaulted: it is either passed explicitly or detected from the
	// command itself.
	DefaultGroup string `toml:"default_group" json:"default_group,omitempty"`
}

// globalFile is the wire form of config.toml.
type globalFile struct {
	GlobalSettings Global `toml:"global_settings"`
}

// LoadGlobal reads the global settings file. A missing file is not an
// error: every setting is optional and the zero value means "no
// default configured".
func LoadGlobal(paths Paths) (Global, error) {
	data, err := os.ReadFile(paths.GlobalFile())
	if err != nil {
		if os.IsNotExist(err) {
			return Global{}, nil
		}
		return Global{}, fmt.Errorf("failed to read %s: %w", paths.GlobalFile(), err)
	}

	var file globalFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Global{}, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid global config %s", paths.GlobalFile()),
			err,
		)
	}

	return file.GlobalSettings, nil
}
