// Package config loads the optional .rocket.yaml project file that
// supplies default values for cmd/rocket's flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file cmd/rocket looks for in the
// current directory.
const FileName = ".rocket.yaml"

// AstFormat selects the encoding the "ast"/"tokens" debug subcommands
// dump in.
type AstFormat string

const (
	FormatText AstFormat = "text"
	FormatJSON AstFormat = "json"
	FormatCBOR AstFormat = "cbor"
)

// Config holds CLI defaults read from .rocket.yaml. Zero value is valid:
// Debug false, AstFormat "" (cmd/rocket treats "" the same as "text").
type Config struct {
	Debug     bool      `yaml:"debug"`
	AstFormat AstFormat `yaml:"ast_format"`
}

// Load reads FileName from dir. A missing file is not an error: it
// returns the zero Config, matching "no project file -> built-in
// defaults". Any other read or parse failure is returned.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.AstFormat.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (f AstFormat) validate() error {
	switch f {
	case "", FormatText, FormatJSON, FormatCBOR:
		return nil
	default:
		return fmt.Errorf("ast_format: unknown value %q (want text, json, or cbor)", string(f))
	}
}
