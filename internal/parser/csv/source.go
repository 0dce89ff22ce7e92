package csv

import (
	"encoding/csv"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Source is an open delimited file read as UTF-8.
//
// Invalid byte sequences are replaced with U+FFFD and a leading byte order
// mark is dropped, so the first header name never carries a BOM.
type Source struct {
	f *os.File
	*csv.Reader
}

// OpenSource opens path for reading records separated by delimiter.
//
// The reader is lenient: quotes inside unquoted fields are accepted and rows
// may have any number of fields. Callers decide what a short or long row means.
func OpenSource(path string, delimiter rune) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Source{f: f, Reader: NewReader(f, delimiter)}, nil
}

// NewReader wraps r with UTF-8 decoding and returns a lenient CSV reader.
func NewReader(r io.Reader, delimiter rune) *csv.Reader {
	// BOMOverride passes a UTF-8 stream through untouched once it has seen the
	// mark, so ill-formed bytes are replaced after it.
	dec := transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.ReplaceIllFormed(),
	))

	cr := csv.NewReader(dec)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
