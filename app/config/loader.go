// Package config loads the optional YAML targets file. When no file is
// given, the caller synthesizes a single target from command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, parses and validates the targets file.
func (l *Loader) Load() ([]Target, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", l.path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets file %s: %w", l.path, err)
	}

	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s defines no targets", l.path)
	}

	seen := make(map[string]bool)
	for i := range file.Targets {
		target := &file.Targets[i]

		if err := l.validate(target, i); err != nil {
			return nil, fmt.Errorf("invalid target in %s: %w", l.path, err)
		}

		if target.Name == "" {
			target.Name = fmt.Sprintf("target-%d", i+1)
		}
		if seen[target.Name] {
			return nil, fmt.Errorf("duplicate target name %q in %s", target.Name, l.path)
		}
		seen[target.Name] = true
	}

	return file.Targets, nil
}

func (l *Loader) validate(target *Target, index int) error {
	if target.URL == "" {
		return fmt.Errorf("target %d: url is required", index+1)
	}

	parsed, err := url.Parse(target.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("target %d: url %q is not an absolute URL", index+1, target.URL)
	}

	if target.AuthCode == "" {
		return fmt.Errorf("target %d: auth_code is required", index+1)
	}

	return nil
}
