// Package manifest describes what a load run imports: the dataset partitions
// and the schema each one lands in, the declared source files, and the
// primary keys used to drop duplicate rows.
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned by Validate for an unusable manifest.
var ErrInvalid = errors.New("invalid manifest")

// Partition maps a data folder to a database schema.
type Partition struct {
	Folder string `yaml:"folder"`
	Schema string `yaml:"schema"`
}

// File is one declared source file. Name is matched case-insensitively and
// may contain glob metacharacters.
type File struct {
	Name string `yaml:"name"`

	// Repair enables fixed-column-count row repair for this file.
	Repair bool `yaml:"repair,omitempty"`
}

// Table returns the target table name for f.
func (f File) Table() string { return TableName(f.Name) }

// Manifest is the full import plan.
type Manifest struct {
	Partitions  []Partition         `yaml:"partitions"`
	Files       []File              `yaml:"files"`
	PrimaryKeys map[string][]string `yaml:"primary_keys"`
}

// TableName lower-cases name up to its first '.'.
//
//	"Review.psv"         -> "review"
//	"order_labels.csv"   -> "order_labels"
//	"archive.2024.csv"   -> "archive"
func TableName(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// KeyFor returns the primary-key columns used to deduplicate table. A nil
// result means the table is loaded as-is.
func (m Manifest) KeyFor(table string) []string {
	if len(m.PrimaryKeys[table]) == 0 {
		return nil
	}
	return m.PrimaryKeys[table]
}

// Schemas returns the schema of every partition, in partition order.
func (m Manifest) Schemas() []string {
	out := make([]string, 0, len(m.Partitions))
	for _, p := range m.Partitions {
		out = append(out, p.Schema)
	}
	return out
}

// Validate checks that m can drive a run.
//
// Primary-key entries are not checked against the file list: an entry that
// matches no table is simply never used.
func (m Manifest) Validate() error {
	if len(m.Partitions) == 0 {
		return fmt.Errorf("%w: no partitions", ErrInvalid)
	}
	seen := make(map[string]bool, len(m.Partitions))
	for i, p := range m.Partitions {
		if p.Folder == "" || p.Schema == "" {
			return fmt.Errorf("%w: partitions[%d]: folder and schema are required", ErrInvalid, i)
		}
		if seen[p.Folder] {
			return fmt.Errorf("%w: partitions[%d]: duplicate folder %q", ErrInvalid, i, p.Folder)
		}
		seen[p.Folder] = true
	}

	if len(m.Files) == 0 {
		return fmt.Errorf("%w: no files", ErrInvalid)
	}
	tables := make(map[string]string, len(m.Files))
	for i, f := range m.Files {
		t := f.Table()
		if t == "" {
			return fmt.Errorf("%w: files[%d]: %q yields an empty table name", ErrInvalid, i, f.Name)
		}
		if prev, ok := tables[t]; ok {
			return fmt.Errorf("%w: files[%d]: %q and %q both map to table %q", ErrInvalid, i, prev, f.Name, t)
		}
		tables[t] = f.Name
	}
	return nil
}
