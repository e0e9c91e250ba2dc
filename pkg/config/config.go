/*
Package config manages startup configuration for TokenServe.

Raw parameters are gathered from four layers, later layers overriding
earlier ones: built-in defaults, a TOML or YAML file, TOKENSERVE_*
environment variables and command line flags. Resolve validates the
result into an immutable Config; nothing reaches engine construction
unless Resolve succeeded.

A config file mirrors the Params sections:

	[server]
	host = "0.0.0.0"
	port = 8080
	path = "/tokenize"

	[dict]
	type = "ipadic"
	user_dict = "user.csv"
	user_dict_type = "csv"

	[tokenizer]
	mode = "normal"
	format = "simple"
	policy = "shared"
*/
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bastiangx/tokenserve/internal/utils"
	"github.com/bastiangx/tokenserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// Params holds the raw, unvalidated startup parameters.
type Params struct {
	Server    ServerParams    `toml:"server" yaml:"server"`
	Dict      DictParams      `toml:"dict" yaml:"dict"`
	Tokenizer TokenizerParams `toml:"tokenizer" yaml:"tokenizer"`
}

// ServerParams has network and route options.
type ServerParams struct {
	Host      string  `toml:"host" yaml:"host"`
	Port      int     `toml:"port" yaml:"port"`
	Path      string  `toml:"path" yaml:"path"`
	Demo      bool    `toml:"demo" yaml:"demo"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `toml:"rate_burst" yaml:"rate_burst"`
}

// DictParams holds dictionary options.
type DictParams struct {
	Type         string `toml:"type" yaml:"type"`
	Path         string `toml:"path" yaml:"path"`
	UserDict     string `toml:"user_dict" yaml:"user_dict"`
	UserDictType string `toml:"user_dict_type" yaml:"user_dict_type"`
}

// TokenizerParams holds engine and output options.
type TokenizerParams struct {
	Mode      string `toml:"mode" yaml:"mode"`
	Format    string `toml:"format" yaml:"format"`
	Policy    string `toml:"policy" yaml:"policy"`
	Normalize string `toml:"normalize" yaml:"normalize"`
}

// DefaultParams returns Params with default values.
func DefaultParams() *Params {
	return &Params{
		Server: ServerParams{
			Host: "0.0.0.0",
			Port: 8080,
			Path: "/tokenize",
		},
		Dict: DictParams{
			Type: string(dictionary.Default()),
		},
		Tokenizer: TokenizerParams{
			Mode:   "normal",
			Format: "simple",
			Policy: "shared",
		},
	}
}

// LoadParams reads a TOML or YAML file on top of the defaults. The decoder
// is chosen by extension; anything that is not .yaml or .yml is TOML.
func LoadParams(path string) (*Params, error) {
	params := DefaultParams()
	if err := decodeFile(path, params); err != nil {
		return nil, err
	}
	log.Debugf("Loaded config from: %s", utils.GetAbsolutePath(path))
	return params, nil
}

func decodeFile(path string, params *Params) error {
	if !utils.FileExists(path) {
		return fmt.Errorf("config file %s not found", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return utils.LoadYAMLFile(path, params)
	default:
		return utils.LoadTOMLFile(path, params)
	}
}

// SaveParams writes params to a TOML file.
func SaveParams(params *Params, path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(params, path)
}

// SaveResolved writes params to a TOML file only when Resolve accepts them.
func SaveResolved(params *Params, path string) error {
	if _, err := Resolve(*params); err != nil {
		return err
	}
	return SaveParams(params, path)
}

// Gather builds Params from every layer: defaults, the optional file at
// path, the environment and the flags set on the command line.
func Gather(path string, lookup func(string) (string, bool), flags *Flags) (*Params, error) {
	params := DefaultParams()
	if path != "" {
		loaded, err := LoadParams(path)
		if err != nil {
			return nil, err
		}
		params = loaded
	}
	if lookup != nil {
		if err := ApplyEnv(params, lookup); err != nil {
			return nil, err
		}
	}
	if flags != nil {
		flags.Apply(params)
	}
	return params, nil
}
