// Package mysql implements storage.Repository for MySQL, loading files with
// LOAD DATA LOCAL INFILE fed from an in-process reader.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"

	"tpcxai-loader/internal/storage"
)

func init() {
	storage.Register("mysql", New)
}

// Repo is a storage.Repository on a single MySQL connection.
//
// MySQL schemas are databases; targets are written as `schema`.`table`. The
// server must allow local_infile.
type Repo struct {
	db *sql.DB
}

// New parses cfg.DSN with the driver's DSN parser and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	// Only registered Reader:: handlers may be loaded, never server-named files.
	mc.AllowAllFiles = false

	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// TransactionalDDL is false: MySQL commits the open transaction before any
// CREATE TABLE or CREATE INDEX.
func (r *Repo) TransactionalDDL() bool { return false }

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mysql: begin: %w", err)
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

var readerSeq atomic.Uint64

// CopyCSV streams r to the server through a one-shot Reader:: handler.
// Empty fields load as NULL.
func (t *Tx) CopyCSV(ctx context.Context, spec storage.CopySpec, r io.Reader) (int64, error) {
	name := "tpcxai-copy-" + strconv.FormatUint(readerSeq.Add(1), 10)
	q, err := buildLoadData(spec, name)
	if err != nil {
		return 0, err
	}

	mysql.RegisterReaderHandler(name, func() io.Reader { return r })
	defer mysql.DeregisterReaderHandler(name)

	res, err := t.tx.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", spec.Target, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("copy %s: rows affected: %w", spec.Target, err)
	}
	return n, nil
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

// buildLoadData renders the LOAD DATA statement for spec, reading from the
// Reader:: handler called reader.
//
// Fields go through user variables so empty strings can become NULL:
//
//	(@c0, @c1) SET `a` = NULLIF(@c0, ''), `b` = NULLIF(@c1, '')
func buildLoadData(spec storage.CopySpec, reader string) (string, error) {
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

	vars := make([]string, len(spec.Columns))
	sets := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		vars[i] = "@c" + strconv.Itoa(i)
		sets[i] = mysqlIdent(c) + " = NULLIF(" + vars[i] + ", '')"
	}

	var b strings.Builder
	b.WriteString("LOAD DATA LOCAL INFILE ")
	b.WriteString(mysqlLiteral("Reader::" + reader))
	b.WriteString(" INTO TABLE ")
	b.WriteString(mysqlTableIdent(spec.Target))
	b.WriteString(" CHARACTER SET utf8mb4")
	b.WriteString(" FIELDS TERMINATED BY ")
	b.WriteString(mysqlLiteral(string(delim)))
	b.WriteString(` OPTIONALLY ENCLOSED BY '"' ESCAPED BY ''`)
	b.WriteString(` LINES TERMINATED BY '\n' IGNORE 1 LINES (`)
	b.WriteString(strings.Join(vars, ", "))
	b.WriteString(") SET ")
	b.WriteString(strings.Join(sets, ", "))
	return b.String(), nil
}

func mysqlIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func mysqlTableIdent(t storage.Target) string {
	if t.Schema == "" {
		return mysqlIdent(t.Table)
	}
	return mysqlIdent(t.Schema) + "." + mysqlIdent(t.Table)
}

func mysqlLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

var _ storage.Repository = (*Repo)(nil)
var _ storage.Tx = (*Tx)(nil)
