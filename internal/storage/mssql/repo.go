// Package mssql implements storage.Repository for Microsoft SQL Server,
// loading files through the TDS bulk-copy path (mssql.CopyIn).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"tpcxai-loader/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

// Repo is a storage.Repository on a single SQL Server connection.
type Repo struct {
	db *sql.DB
}

// New opens a "sqlserver" database/sql handle and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

func (r *Repo) TransactionalDDL() bool { return true }

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mssql: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Exec(ctx context.Context, stmt string) error {
	_, err := t.tx.ExecContext(ctx, stmt)
	return err
}

// CopyCSV bulk-loads r with INSERT BULK. Rows are buffered by the driver and
// sent when the final no-argument Exec flushes the batch.
func (t *Tx) CopyCSV(ctx context.Context, spec storage.CopySpec, r io.Reader) (int64, error) {
	q, err := buildCopyIn(spec)
	if err != nil {
		return 0, err
	}

	stmt, err := t.tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("copy %s: prepare bulk: %w", spec.Target, err)
	}
	defer stmt.Close()

	args := make([]any, len(spec.Columns))
	n, err := storage.EachRow(r, spec.Delimiter, len(spec.Columns), func(row []string) error {
		for i, v := range row {
			args[i] = storage.NullIfEmpty(v)
		}
		_, err := stmt.ExecContext(ctx, args...)
		return err
	})
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", spec.Target, err)
	}

	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return n, fmt.Errorf("copy %s: flush bulk: %w", spec.Target, err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		return affected, nil
	}
	return n, nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

func buildCopyIn(spec storage.CopySpec) (string, error) {
	if err := spec.Target.Validate(); err != nil {
		return "", err
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("copy %s: no columns", spec.Target)
	}
	return mssql.CopyIn(mssqlTableIdent(spec.Target), mssql.BulkOptions{}, spec.Columns...), nil
}

func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent returns a bracket-quoted, optionally schema-qualified name.
//
// Example:
//
//	{train product} -> [train].[product]
func mssqlTableIdent(t storage.Target) string {
	if t.Schema == "" {
		return mssqlIdent(t.Table)
	}
	return mssqlIdent(t.Schema) + "." + mssqlIdent(t.Table)
}

var _ storage.Repository = (*Repo)(nil)
var _ storage.Tx = (*Tx)(nil)
