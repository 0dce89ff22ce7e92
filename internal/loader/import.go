package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	csvsrc "tpcxai-loader/internal/parser/csv"
	"tpcxai-loader/internal/storage"
)

// ImportFile bulk-copies the normalized file at path into target and returns
// the number of rows loaded.
//
// The delimiter is detected again from the file itself. Column names are the
// lower-cased header; the backend quotes them. Nothing is checked against
// the table's real columns, so a mismatch surfaces as a database error.
func ImportFile(ctx context.Context, tx storage.Tx, target storage.Target, path string, header []string) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", target, err)
	}
	defer f.Close()

	delim, err := csvsrc.DetectDelimiter(f)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", target, err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(h)
	}

	n, err := tx.CopyCSV(ctx, storage.CopySpec{Target: target, Columns: cols, Delimiter: delim}, f)
	if err != nil {
		return n, fmt.Errorf("import %s: %w", target, err)
	}
	return n, nil
}
