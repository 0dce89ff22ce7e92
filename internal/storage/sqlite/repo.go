package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"tpcxai-loader/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Key design points vs Postgres:
//   - SQLite has no schemas. Every name in Config.Schemas is attached as its
//     own database, so "train"."product" resolves the same way it does on
//     Postgres. In-memory DSNs attach in-memory databases.
//   - There is no CSV COPY; CopyCSV inserts rows through one prepared
//     statement inside the caller's transaction.
//   - The pool is pinned to a single connection: attached and in-memory
//     databases only exist on the connection that created them.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	for _, s := range cfg.Schemas {
		if s == "" || strings.EqualFold(s, "main") {
			continue
		}
		if _, err := db.ExecContext(ctx, "ATTACH DATABASE ? AS "+sqlIdent(s), attachPath(dsn, s)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: attach schema %s: %w", s, err)
		}
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) TransactionalDDL() bool { return true }

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
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

// CopyCSV inserts every data row of r into spec.Target. Empty fields are
// stored as NULL.
func (t *Tx) CopyCSV(ctx context.Context, spec storage.CopySpec, r io.Reader) (int64, error) {
	q, err := buildInsertSQL(spec)
	if err != nil {
		return 0, err
	}

	stmt, err := t.tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("copy %s: prepare: %w", spec.Target, err)
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
	return n, nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

func buildInsertSQL(spec storage.CopySpec) (string, error) {
	if err := spec.Target.Validate(); err != nil {
		return "", err
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("copy %s: no columns", spec.Target)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	if spec.Target.Schema != "" {
		b.WriteString(sqlIdent(spec.Target.Schema))
		b.WriteString(".")
	}
	b.WriteString(sqlIdent(spec.Target.Table))
	b.WriteString(" (")
	b.WriteString(joinIdentList(spec.Columns))
	b.WriteString(") VALUES (")
	for i := range spec.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	b.WriteString(")")
	return b.String(), nil
}

// attachPath picks the database file backing schema. File databases get a
// sibling file named after the schema ("bench.db" -> "bench_train.db").
func attachPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ":memory:"
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".db"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_" + schema + ext
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func joinIdentList(columns []string) string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, sqlIdent(c))
	}
	return strings.Join(out, ", ")
}

var _ storage.Repository = (*Repo)(nil)
var _ storage.Tx = (*Tx)(nil)
