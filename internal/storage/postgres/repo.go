// Package postgres implements storage.Repository on a single pgx connection,
// loading files with COPY ... FROM STDIN in CSV format.
package postgres

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tpcxai-loader/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// Repo is a storage.Repository backed by a one-connection pgx pool.
//
// The loader runs one transaction at a time, so the pool never needs more than
// one connection; capping it keeps the run on a single server session.
type Repo struct {
	pool *pgxpool.Pool
}

// New connects to Postgres. The session uses client_encoding UTF8.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	pcfg.MaxConns = 1
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	pcfg.ConnConfig.RuntimeParams["client_encoding"] = "UTF8"

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

func (r *Repo) TransactionalDDL() bool { return true }

// Begin starts a transaction.
func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx.Tx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Exec(ctx context.Context, stmt string) error {
	_, err := t.tx.Exec(ctx, stmt)
	return err
}

// CopyCSV streams r to the server with COPY FROM STDIN. The header line in r
// is skipped by the server (HEADER TRUE).
func (t *Tx) CopyCSV(ctx context.Context, spec storage.CopySpec, r io.Reader) (int64, error) {
	sql, err := buildCopySQL(spec)
	if err != nil {
		return 0, err
	}
	tag, err := t.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", spec.Target, err)
	}
	return tag.RowsAffected(), nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// buildCopySQL renders the COPY statement for spec.
//
// It is pure so the quoting and option rendering can be tested without a
// server.
func buildCopySQL(spec storage.CopySpec) (string, error) {
	if err := spec.Target.Validate(); err != nil {
		return "", err
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("copy %s: no columns", spec.Target)
	}
	delim := spec.Delimiter
	if delim == 0 {
		delim = ','
	}

	var b strings.Builder
	b.WriteString("COPY ")
	b.WriteString(tableIdent(spec.Target))
	b.WriteString("(")
	for i, c := range spec.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") FROM STDIN (DELIMITER ")
	b.WriteString(pgLiteral(string(delim)))
	b.WriteString(", FORMAT CSV, HEADER TRUE)")
	return b.String(), nil
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func pgLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func tableIdent(t storage.Target) string {
	if t.Schema == "" {
		return pgIdent(t.Table)
	}
	return pgIdent(t.Schema) + "." + pgIdent(t.Table)
}

var _ storage.Repository = (*Repo)(nil)
var _ storage.Tx = (*Tx)(nil)
