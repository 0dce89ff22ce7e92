package storage

import (
	"errors"
	"fmt"
	"io"

	csvsrc "tpcxai-loader/internal/parser/csv"
)

// EachRow reads a header-plus-rows stream as handed to Tx.CopyCSV and calls fn
// for every data row. Backends without a native CSV copy use it to drive
// their own bulk path.
//
// Rows must have exactly want fields, matching what a native CSV copy would
// accept. It returns the number of rows passed to fn.
func EachRow(r io.Reader, delimiter rune, want int, fn func(row []string) error) (int64, error) {
	cr := csvsrc.NewReader(r, delimiter)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read copy header: %w", err)
	}

	var n int64
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read copy row %d: %w", n+1, err)
		}
		if len(row) != want {
			return n, fmt.Errorf("copy row %d: got %d fields, want %d", n+1, len(row), want)
		}
		if err := fn(row); err != nil {
			return n, err
		}
		n++
	}
}

// NullIfEmpty converts a CSV field to a bind argument. Empty fields load as
// NULL, the same as an unquoted empty field in a Postgres CSV COPY.
func NullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
