package lexicon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a lexicon from path. The format is chosen by file extension:
// .yaml/.yml files are parsed as YAML, .db/.sqlite/.sqlite3 are opened as
// SQLite stores. The file must exist. An empty path returns the built-in
// dictionary.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	switch {
	case IsYAMLPath(path):
		return LoadYAML(path)
	case IsStorePath(path):
		// OpenStore creates missing databases; reading must not
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read lexicon file: %w", err)
		}
		store, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Load()
	default:
		return nil, fmt.Errorf("unsupported lexicon format: %s (use .yaml, .yml, .db, .sqlite or .sqlite3)", path)
	}
}

// IsYAMLPath reports whether path names a YAML lexicon file
func IsYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// IsStorePath reports whether path names a SQLite lexicon store
func IsStorePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// LoadYAML reads a YAML lexicon of the form
//
//	good:
//	  - target: tot
//	    probability: 0.7
//	  - target: ngon
//	    probability: 0.3
func LoadYAML(path string) (*Lexicon, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return ParseYAML(content)
}

// ParseYAML parses a YAML lexicon document
func ParseYAML(content []byte) (*Lexicon, error) {
	var entries map[string][]Candidate
	if err := yaml.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	return New(entries)
}

// SaveYAML writes the lexicon to path as YAML, words in sorted order
func (l *Lexicon) SaveYAML(path string) error {
	content, err := yaml.Marshal(l.Entries())
	if err != nil {
		return fmt.Errorf("failed to encode lexicon: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write lexicon file: %w", err)
	}
	return nil
}
