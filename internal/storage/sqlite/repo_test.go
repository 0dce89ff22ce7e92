package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcxai-loader/internal/storage"
)

func openMemory(t *testing.T, schemas ...string) *Repo {
	t.Helper()
	r, err := New(context.Background(), storage.Config{Kind: "sqlite", DSN: ":memory:", Schemas: schemas})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r.(*Repo)
}

func countRows(t *testing.T, r *Repo, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestAttachPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn, schema, want string
	}{
		{":memory:", "train", ":memory:"},
		{"file:bench?mode=memory&cache=shared", "train", ":memory:"},
		{"/data/bench.db", "serve", "/data/bench_serve.db"},
		{"file:/data/bench.sqlite?_pragma=foreign_keys(1)", "score", "/data/bench_score.sqlite"},
		{"bench", "train", "bench_train.db"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, attachPath(tc.dsn, tc.schema), tc.dsn)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	got, err := buildInsertSQL(storage.CopySpec{
		Target:  storage.Target{Schema: "train", Table: "order"},
		Columns: []string{"o_order_id", "date"},
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "train"."order" ("o_order_id", "date") VALUES (?, ?)`, got)

	_, err = buildInsertSQL(storage.CopySpec{Target: storage.Target{Schema: "train"}, Columns: []string{"a"}})
	assert.ErrorIs(t, err, storage.ErrInvalidTarget)
}

func TestCopyCSV_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	r := openMemory(t, "train", "main")

	setup, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Exec(ctx, `CREATE TABLE train.product (p_product_id TEXT, name TEXT)`))
	require.NoError(t, setup.Commit(ctx))

	spec := storage.CopySpec{
		Target:    storage.Target{Schema: "train", Table: "product"},
		Columns:   []string{"p_product_id", "name"},
		Delimiter: ';',
	}

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	n, err := tx.CopyCSV(ctx, spec, strings.NewReader("p_product_id;name\n1;a\n2;\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 0, countRows(t, r, "train.product"))

	tx, err = r.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.CopyCSV(ctx, spec, strings.NewReader("p_product_id;name\n1;a\n2;\n"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 2, countRows(t, r, "train.product"))

	var nulls int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM train.product WHERE name IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestCopyCSV_MissingTableFails(t *testing.T) {
	ctx := context.Background()
	r := openMemory(t, "serve")

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = tx.CopyCSV(ctx, storage.CopySpec{
		Target:    storage.Target{Schema: "serve", Table: "nope"},
		Columns:   []string{"a"},
		Delimiter: ',',
	}, strings.NewReader("a\n1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve.nope")
}

func TestNew_FileDatabaseAttachesSiblings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "bench.db")

	r, err := New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Schemas: []string{"score"}})
	require.NoError(t, err)
	defer r.Close()

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `CREATE TABLE score.t (a TEXT)`))
	require.NoError(t, tx.Commit(ctx))

	assert.FileExists(t, filepath.Join(dir, "bench_score.db"))
}
