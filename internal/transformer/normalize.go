package transformer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	csvsrc "tpcxai-loader/internal/parser/csv"
)

// ctxCheckEvery controls how often the row loop looks at ctx.
const ctxCheckEvery = 4096

// Options controls a single Normalize call.
type Options struct {
	// Delimiter of the source file. Also used for the scratch file.
	Delimiter rune

	// PrimaryKey lists key column names. Empty means no deduplication.
	PrimaryKey []string

	// Repair enables RepairRow for this file.
	Repair bool

	// TempDir is where the scratch file is created. Empty uses os.TempDir().
	TempDir string
}

// Result describes the scratch file written by Normalize.
//
// The caller owns Path and must remove it once the import is done.
type Result struct {
	Path   string
	Header []string

	RowsRead    int64
	RowsWritten int64
	Duplicates  int64
	Repaired    int64
}

// Normalize reads src once and writes a scratch file with the same header and
// the repaired, deduplicated rows, in source order.
//
// The header is read exactly once and drives both the key lookup and the
// scratch header. src itself is never modified. On error no scratch file is
// left behind.
func Normalize(ctx context.Context, src string, opt Options) (res Result, err error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = csvsrc.DefaultDelimiter
	}

	in, err := csvsrc.OpenSource(src, delim)
	if err != nil {
		return Result{}, fmt.Errorf("normalize: open %s: %w", src, err)
	}
	defer in.Close()

	header, err := in.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("normalize: %s: missing header row", src)
		}
		return Result{}, fmt.Errorf("normalize: %s: read header: %w", src, err)
	}
	header = append([]string(nil), header...)

	var idx []int
	if len(opt.PrimaryKey) > 0 {
		idx, err = KeyIndices(header, opt.PrimaryKey)
		if err != nil {
			return Result{}, fmt.Errorf("normalize: %s: %w", src, err)
		}
	}
	dedupe := NewDeduper(idx)
	repair := opt.Repair && RepairApplies(len(header))

	tmp, err := os.CreateTemp(opt.TempDir, "normalized-*.csv")
	if err != nil {
		return Result{}, fmt.Errorf("normalize: create scratch file: %w", err)
	}
	res.Path = tmp.Name()
	res.Header = header

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(res.Path)
			res = Result{}
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = delim

	if err = w.Write(header); err != nil {
		return res, fmt.Errorf("normalize: write header: %w", err)
	}

	for {
		if res.RowsRead%ctxCheckEvery == 0 {
			if err = ctx.Err(); err != nil {
				return res, err
			}
		}

		row, rerr := in.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			err = fmt.Errorf("normalize: %s: read row %d: %w", src, res.RowsRead+1, rerr)
			return res, err
		}
		res.RowsRead++

		if repair {
			fixed := RepairRow(len(header), row)
			if len(fixed) != len(row) {
				res.Repaired++
			}
			row = fixed
		}

		ok, kerr := dedupe.Admit(row)
		if kerr != nil {
			err = fmt.Errorf("normalize: %s: row %d: %w", src, res.RowsRead, kerr)
			return res, err
		}
		if !ok {
			res.Duplicates++
			continue
		}

		if err = w.Write(row); err != nil {
			return res, fmt.Errorf("normalize: write row: %w", err)
		}
		res.RowsWritten++
	}

	w.Flush()
	if err = w.Error(); err != nil {
		return res, fmt.Errorf("normalize: flush: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return res, fmt.Errorf("normalize: close scratch file: %w", err)
	}
	return res, nil
}
