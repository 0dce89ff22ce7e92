package transformer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrConfig marks a primary-key declaration that does not fit the file it is
// applied to (unknown column, or a row too short to hold the key).
var ErrConfig = errors.New("configuration error")

// KeyIndices resolves primary-key column names to positions in header.
//
// Names are matched exactly. Any name missing from the header fails with
// ErrConfig.
func KeyIndices(header []string, keys []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	out := make([]int, len(keys))
	for i, k := range keys {
		ix, ok := pos[k]
		if !ok {
			return nil, fmt.Errorf("%w: primary key column %q not in header %v", ErrConfig, k, header)
		}
		out[i] = ix
	}
	return out, nil
}

// Deduper remembers the key tuples it has seen and admits only the first row
// for each tuple. An empty index list admits every row.
type Deduper struct {
	idx  []int
	seen map[string]struct{}
	b    strings.Builder
}

// NewDeduper returns a Deduper keyed on the given column positions.
func NewDeduper(idx []int) *Deduper {
	return &Deduper{
		idx:  append([]int(nil), idx...),
		seen: make(map[string]struct{}),
	}
}

// Enabled reports whether the Deduper filters anything at all.
func (d *Deduper) Enabled() bool { return len(d.idx) > 0 }

// Admit reports whether row is the first one carrying its key tuple.
func (d *Deduper) Admit(row []string) (bool, error) {
	if !d.Enabled() {
		return true, nil
	}

	k, err := d.key(row)
	if err != nil {
		return false, err
	}
	if _, ok := d.seen[k]; ok {
		return false, nil
	}
	d.seen[k] = struct{}{}
	return true, nil
}

// Seen returns the number of distinct key tuples admitted so far.
func (d *Deduper) Seen() int { return len(d.seen) }

// key encodes the tuple with length prefixes so that values containing the
// separator cannot collide.
func (d *Deduper) key(row []string) (string, error) {
	d.b.Reset()
	for _, ix := range d.idx {
		if ix >= len(row) {
			return "", fmt.Errorf("%w: row has %d fields, key column at position %d", ErrConfig, len(row), ix)
		}
		v := row[ix]
		d.b.WriteString(strconv.Itoa(len(v)))
		d.b.WriteByte(':')
		d.b.WriteString(v)
		d.b.WriteByte('\x1f')
	}
	return d.b.String(), nil
}
