package utils

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadTOMLFile loads and parses a TOML file into the provided struct.
// Keys that do not map to a field are reported as an error.
func LoadTOMLFile(path string, v interface{}) error {
	meta, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("TOML parsing error in %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return nil
}

// LoadYAMLFile loads and parses a YAML file into the provided struct.
// Keys that do not map to a field are reported as an error.
func LoadYAMLFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("YAML parsing error in %s: %w", path, err)
	}
	return nil
}
