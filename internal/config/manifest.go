package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Manifest declares the external scanners that produce scan result files.
// It lives at .coderef/scanners.toml.
type Manifest struct {
	Scanners map[string]ScannerConfig `toml:"scanners"`
}

// ScannerConfig describes one external scanner invocation
type ScannerConfig struct {
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	Languages []string `toml:"languages"` // Languages this scanner covers
	Output    string   `toml:"output"`    // Scan file the command writes: json, yaml, or scip
}

// LoadManifest loads the scanner manifest from .coderef/scanners.toml.
// A missing manifest is not an error: scans can still be ingested from
// files produced elsewhere.
func LoadManifest(repoRoot string) (*Manifest, error) {
	path := filepath.Join(repoRoot, ".coderef", "scanners.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{Scanners: map[string]ScannerConfig{}}, nil
		}
		return nil, fmt.Errorf("read scanner manifest: %w", err)
	}

	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("parse scanner manifest: %w", err)
	}
	if m.Scanners == nil {
		m.Scanners = map[string]ScannerConfig{}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scanner manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that every scanner entry is usable
func (m *Manifest) Validate() error {
	for name, sc := range m.Scanners {
		if sc.Command == "" {
			return fmt.Errorf("scanner %q: command is required", name)
		}
		switch sc.Output {
		case "", "json", "yaml", "scip":
		default:
			return fmt.Errorf("scanner %q: unknown output format %q", name, sc.Output)
		}
	}
	return nil
}

// Names returns the scanner names in stable order
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Scanners))
	for name := range m.Scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForLanguage returns the names of scanners covering the given language
func (m *Manifest) ForLanguage(language string) []string {
	var names []string
	for _, name := range m.Names() {
		for _, lang := range m.Scanners[name].Languages {
			if lang == language {
				names = append(names, name)
				break
			}
		}
	}
	return names
}
