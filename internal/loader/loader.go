// Package loader drives a full TPCx-AI import: table DDL, then every declared
// file of every partition, then index DDL.
//
// Flow per run:
//
//	Setup          table DDL in its own transaction, committed
//	Import         one run transaction; per partition, per file:
//	               find -> detect delimiter -> repair/dedupe -> copy
//	IndexCreation  index DDL in the run transaction
//	Done           run transaction committed
//
// Any error after Setup rolls back the run transaction (StateFailed), so
// either every file and index lands or none does. A declared file that is
// absent from its partition folder is logged and skipped.
//
// Backends whose DDL commits implicitly (storage.Repository.TransactionalDDL
// is false) commit the imported rows first and create indexes in a second
// transaction. An index failure there leaves the rows loaded.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"tpcxai-loader/internal/manifest"
	"tpcxai-loader/internal/metrics"
	csvsrc "tpcxai-loader/internal/parser/csv"
	"tpcxai-loader/internal/storage"
	"tpcxai-loader/internal/transformer"
)

// State is the orchestrator's position in a run.
type State int

const (
	StateSetup State = iota
	StateImport
	StateIndexCreation
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateImport:
		return "import"
	case StateIndexCreation:
		return "index_creation"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures Run.
type Options struct {
	// DataRoot holds one folder per manifest partition.
	DataRoot string

	// TablesSQL and IndexesSQL are DDL scripts split on ';'. An empty path
	// skips that step.
	TablesSQL  string
	IndexesSQL string

	Manifest manifest.Manifest

	// TempDir receives scratch files. Empty uses os.TempDir().
	TempDir string

	RunID  string
	Logger log.FieldLogger
}

type run struct {
	repo   storage.Repository
	opts   Options
	log    log.FieldLogger
	report Report
}

// Run performs one import against repo. The caller owns repo and closes it.
//
// The returned Report is valid on error too.
func Run(ctx context.Context, repo storage.Repository, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	if opts.RunID != "" {
		logger = logger.WithField("run_id", opts.RunID)
	}

	r := &run{
		repo:   repo,
		opts:   opts,
		log:    logger,
		report: Report{RunID: opts.RunID},
	}

	start := time.Now()
	err := r.execute(ctx)
	r.report.Elapsed = time.Since(start)

	if err != nil {
		r.enter(StateFailed)
	}
	r.log.Infof("--- Entire process: %.2f seconds ---", r.report.Elapsed.Seconds())
	return r.report, err
}

func (r *run) enter(s State) {
	r.report.State = s
	r.log.WithField("state", s).Debug("loader: state")
}

func (r *run) execute(ctx context.Context) error {
	if err := r.opts.Manifest.Validate(); err != nil {
		return err
	}

	r.enter(StateSetup)
	if err := r.timed("create_tables", func() error {
		return r.setup(ctx)
	}); err != nil {
		return err
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}

	if err := r.load(ctx, tx); err != nil {
		r.rollback(tx)
		return err
	}

	if !r.repo.TransactionalDDL() {
		if err := tx.Commit(ctx); err != nil {
			r.rollback(tx)
			return fmt.Errorf("commit: %w", err)
		}
		r.log.Warn("backend commits implicitly on DDL: imported rows are committed and stay loaded if index creation fails")
		if tx, err = r.repo.Begin(ctx); err != nil {
			return fmt.Errorf("begin index transaction: %w", err)
		}
	}

	if err := r.createIndexes(ctx, tx); err != nil {
		r.rollback(tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.rollback(tx)
		return fmt.Errorf("commit: %w", err)
	}
	r.enter(StateDone)
	return nil
}

// setup runs the table DDL and commits it, so the tables exist before and
// independently of the run transaction.
func (r *run) setup(ctx context.Context) error {
	if r.opts.TablesSQL == "" {
		r.log.Warn("no table DDL script configured; tables must already exist")
		return nil
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin setup transaction: %w", err)
	}
	n, err := storage.ExecScriptFile(ctx, tx, r.opts.TablesSQL)
	if err != nil {
		r.rollback(tx)
		return fmt.Errorf("create tables: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create tables: commit: %w", err)
	}
	r.log.WithField("statements", n).Info("tables created")
	return nil
}

func (r *run) load(ctx context.Context, tx storage.Tx) error {
	r.enter(StateImport)
	for _, p := range r.opts.Manifest.Partitions {
		plog := r.log.WithFields(log.Fields{"partition": p.Folder, "schema": p.Schema})
		plog.Infof("--- Processing folder: %s ---", p.Folder)

		for _, f := range r.opts.Manifest.Files {
			fr, err := r.loadFile(ctx, tx, plog, p, f)
			if err != nil {
				fr.Failed = true
				r.report.Files = append(r.report.Files, fr)
				metrics.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"status": "failed"})
				return fmt.Errorf("%s/%s: %w", p.Folder, f.Name, err)
			}
			r.report.Files = append(r.report.Files, fr)
		}
	}
	return nil
}

func (r *run) createIndexes(ctx context.Context, tx storage.Tx) error {
	r.enter(StateIndexCreation)
	if r.opts.IndexesSQL == "" {
		r.log.Warn("no index DDL script configured; skipping index creation")
		return nil
	}
	return r.timed("create_indexes", func() error {
		n, err := storage.ExecScriptFile(ctx, tx, r.opts.IndexesSQL)
		if err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
		r.log.WithField("statements", n).Info("indexes created")
		return nil
	})
}

func (r *run) loadFile(ctx context.Context, tx storage.Tx, plog log.FieldLogger, p manifest.Partition, f manifest.File) (FileReport, error) {
	started := time.Now()
	fr := FileReport{
		Partition: p.Folder,
		Schema:    p.Schema,
		File:      f.Name,
		Table:     f.Table(),
	}
	flog := plog.WithFields(log.Fields{"file": f.Name, "table": fr.Table})
	flog.Infof("--- Schema: '%s' | File: '%s' is being processed ... ---", p.Schema, f.Name)

	dir := filepath.Join(r.opts.DataRoot, p.Folder)
	name, err := FindFile(dir, f.Name)
	if err != nil {
		return fr, err
	}
	if name == "" {
		flog.Warnf("%s not found in the folder %s", f.Name, p.Folder)
		fr.Skipped = true
		metrics.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"status": "missing"})
		return fr, nil
	}
	fr.Path = filepath.Join(dir, name)

	delim, err := csvsrc.DetectDelimiterFile(fr.Path)
	if err != nil {
		return fr, err
	}

	var res transformer.Result
	err = r.timed("read_and_process_csv", func() error {
		var nerr error
		res, nerr = transformer.Normalize(ctx, fr.Path, transformer.Options{
			Delimiter:  delim,
			PrimaryKey: r.opts.Manifest.KeyFor(fr.Table),
			Repair:     f.Repair,
			TempDir:    r.opts.TempDir,
		})
		return nerr
	})
	if err != nil {
		return fr, err
	}
	defer func() {
		if rmErr := os.Remove(res.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			flog.WithError(rmErr).Warn("remove scratch file")
		}
	}()

	fr.RowsRead = res.RowsRead
	fr.RowsWritten = res.RowsWritten
	fr.Duplicates = res.Duplicates
	fr.Repaired = res.Repaired
	metrics.AddRows("read", res.RowsRead)
	metrics.AddRows("duplicate", res.Duplicates)
	metrics.AddRows("repaired", res.Repaired)

	target := storage.Target{Schema: p.Schema, Table: fr.Table}
	err = r.timed("import_csv_to_table", func() error {
		n, ierr := ImportFile(ctx, tx, target, res.Path, res.Header)
		fr.RowsCopied = n
		return ierr
	})
	if err != nil {
		return fr, err
	}
	metrics.AddRows("copied", fr.RowsCopied)
	metrics.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"status": "loaded"})

	fr.Elapsed = time.Since(started)
	flog.WithFields(log.Fields{
		"rows":       fr.RowsCopied,
		"duplicates": fr.Duplicates,
		"repaired":   fr.Repaired,
	}).Info("file imported")
	return fr, nil
}

// timed logs the start and end of a step and records it in metrics.
func (r *run) timed(step string, fn func() error) error {
	r.log.Infof("Starting: %s...", step)
	t := metrics.StartTimer(step)
	err := fn()
	d := t.Stop(err)
	if err != nil {
		r.log.WithError(err).Debugf("Failed %s after %.2f seconds", step, d.Seconds())
		return err
	}
	r.log.Infof("Finished %s in %.2f seconds", step, d.Seconds())
	return nil
}

func (r *run) rollback(tx storage.Tx) {
	// The caller's ctx may already be canceled; the rollback must still reach
	// the database.
	if err := tx.Rollback(context.Background()); err != nil {
		r.log.WithError(err).Error("rollback failed")
		return
	}
	r.log.Warn("transaction rolled back")
}
