package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SplitStatements splits a SQL script on ';' and drops statements that are
// empty after trimming. It does not understand quoting or comments; the DDL
// scripts it is used for contain neither semicolons in literals nor bodies.
func SplitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExecScript runs every statement of script in tx, in order, and returns how
// many ran. It stops at the first failing statement.
func ExecScript(ctx context.Context, tx Tx, script string) (int, error) {
	stmts := SplitStatements(script)
	for i, s := range stmts {
		if err := tx.Exec(ctx, s); err != nil {
			return i, fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	return len(stmts), nil
}

// ExecScriptFile reads path and runs it with ExecScript.
func ExecScriptFile(ctx context.Context, tx Tx, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sql script: %w", err)
	}
	n, err := ExecScript(ctx, tx, string(b))
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
