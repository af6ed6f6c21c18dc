package util

import (
	"errors"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Configuration carries build metadata plus the settings an interpreter run
// needs. File values come from rill.toml; flags override them.
type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	RootPath string `toml:"root_path"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	DebugAST bool   `toml:"debug_ast"`
}

// LoadConfiguration reads path into base. A missing file is not an error;
// the caller's defaults stand.
func LoadConfiguration(path string, base Configuration) (Configuration, error) {
	config := base
	if _, err := toml.DecodeFile(path, &config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, err
	}
	return config, nil
}
