package mssql

import (
	"strings"
	"testing"

	"tpcxai-loader/internal/storage"
)

func TestMssqlTableIdent(t *testing.T) {
	t.Parallel()

	if got := mssqlTableIdent(storage.Target{Schema: "train", Table: "product"}); got != "[train].[product]" {
		t.Fatalf("unexpected ident: %s", got)
	}
	if got := mssqlTableIdent(storage.Target{Table: "we]ird"}); got != "[we]]ird]" {
		t.Fatalf("unexpected ident: %s", got)
	}
}

func TestBuildCopyIn(t *testing.T) {
	t.Parallel()

	q, err := buildCopyIn(storage.CopySpec{
		Target:  storage.Target{Schema: "serve", Table: "order"},
		Columns: []string{"o_order_id", "o_customer_sk"},
	})
	if err != nil {
		t.Fatalf("buildCopyIn: %v", err)
	}
	if !strings.HasPrefix(q, "INSERTBULK") {
		t.Fatalf("expected bulk statement, got %q", q)
	}
	for _, want := range []string{"[serve].[order]", "o_order_id", "o_customer_sk"} {
		if !strings.Contains(q, want) {
			t.Fatalf("bulk statement missing %q: %q", want, q)
		}
	}
}

func TestBuildCopyIn_RejectsEmptyTable(t *testing.T) {
	t.Parallel()

	_, err := buildCopyIn(storage.CopySpec{Target: storage.Target{Schema: "serve"}, Columns: []string{"a"}})
	if err == nil {
		t.Fatalf("expected error for empty table")
	}
	_, err = buildCopyIn(storage.CopySpec{Target: storage.Target{Table: "t"}})
	if err == nil {
		t.Fatalf("expected error for empty columns")
	}
}
