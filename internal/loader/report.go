package loader

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// FileReport is the outcome for one declared file in one partition.
type FileReport struct {
	Partition string
	Schema    string
	File      string
	Table     string

	// Path is empty when the file was not found.
	Path    string
	Skipped bool
	// Failed is set when processing or copying the file returned an error.
	Failed bool

	RowsRead    int64
	RowsWritten int64
	Duplicates  int64
	Repaired    int64
	RowsCopied  int64

	Elapsed time.Duration
}

// Report summarizes a run. It is returned even when the run fails; State
// then is StateFailed and Files holds what was processed before the error.
type Report struct {
	RunID   string
	State   State
	Files   []FileReport
	Elapsed time.Duration
}

// Loaded returns how many files were copied.
func (r Report) Loaded() int {
	n := 0
	for _, f := range r.Files {
		if !f.Skipped && !f.Failed {
			n++
		}
	}
	return n
}

// Skipped returns how many declared files were not found.
func (r Report) Skipped() int {
	n := 0
	for _, f := range r.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// Failed returns how many files errored.
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Failed {
			n++
		}
	}
	return n
}

// RowsCopied returns the total rows copied across all files.
func (r Report) RowsCopied() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.RowsCopied
	}
	return n
}

// WriteTable prints one line per file and a totals line.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEMA\tTABLE\tFILE\tREAD\tDUPLICATES\tREPAIRED\tCOPIED\tSECONDS")
	for _, f := range r.Files {
		if f.Skipped {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\tmissing\t-\n", f.Schema, f.Table, f.File)
			continue
		}
		if f.Failed {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\tfailed\t-\n", f.Schema, f.Table, f.File, f.RowsRead, f.Duplicates, f.Repaired)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f\n",
			f.Schema, f.Table, f.File, f.RowsRead, f.Duplicates, f.Repaired, f.RowsCopied, f.Elapsed.Seconds())
	}
	totals := fmt.Sprintf("%d loaded, %d missing", r.Loaded(), r.Skipped())
	if n := r.Failed(); n > 0 {
		totals += fmt.Sprintf(", %d failed", n)
	}
	fmt.Fprintf(tw, "\t\t%s\t\t\t\t%d\t%.2f\n", totals, r.RowsCopied(), r.Elapsed.Seconds())
	return tw.Flush()
}
