package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// override is the on-disk shape of a manifest file. Every section is
// optional; a present section replaces the built-in one, except
// primary_keys, which is merged per table.
type override struct {
	Partitions  []Partition         `yaml:"partitions"`
	Files       []File              `yaml:"files"`
	PrimaryKeys map[string][]string `yaml:"primary_keys"`
}

// Load returns Default with the YAML file at path applied on top. An empty
// path returns Default unchanged.
//
// An empty key list in primary_keys disables deduplication for that table.
// Unknown fields are rejected.
func Load(path string) (Manifest, error) {
	m := Default()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var o override
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if len(o.Partitions) > 0 {
		m.Partitions = o.Partitions
	}
	if len(o.Files) > 0 {
		m.Files = o.Files
	}
	for t, cols := range o.PrimaryKeys {
		m.PrimaryKeys[t] = cols
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}
