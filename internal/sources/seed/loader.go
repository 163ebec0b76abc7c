// Package seed reads the list of sports written to empty storage.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of a seed YAML file
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the seed file. Unknown fields are rejected so a
// typo such as "colour" does not silently produce colorless sports.
func (l *Loader) Load() (Config, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	defer f.Close()

	var config Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	return config, nil
}
