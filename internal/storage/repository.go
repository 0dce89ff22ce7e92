package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

var (
	// ErrInvalidTarget is returned when a bulk copy names no table.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrUnsupportedBackend is returned by New for an unregistered Kind.
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
)

// Config is the minimal configuration needed to open a Repository.
//
// Edge cases:
//   - Kind must match a registered backend kind.
//   - DSN is passed through to the backend; validation is backend-specific.
//   - Schemas lists the schemas the run writes into. Backends without native
//     schemas (SQLite) use it to attach one database per schema; others
//     ignore it.
type Config struct {
	Kind    string
	DSN     string
	Schemas []string
}

// Target names the table a bulk copy writes into.
type Target struct {
	Schema string
	Table  string
}

// Validate returns ErrInvalidTarget if the table name is empty.
func (t Target) Validate() error {
	if t.Table == "" {
		return fmt.Errorf("%w: table name is empty (schema=%q)", ErrInvalidTarget, t.Schema)
	}
	return nil
}

func (t Target) String() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// CopySpec describes one bulk copy.
//
// Columns are used as given; backends only quote them. Delimiter separates
// fields in the stream handed to Tx.CopyCSV.
type CopySpec struct {
	Target    Target
	Columns   []string
	Delimiter rune
}

// Repository owns the database connection for one run.
//
// Close must be called exactly once, after every Tx has been committed or
// rolled back.
type Repository interface {
	Begin(ctx context.Context) (Tx, error)
	Close()

	// TransactionalDDL reports whether CREATE TABLE and CREATE INDEX run
	// inside an open Tx. It is false when DDL implicitly commits the
	// transaction (MySQL), so rows copied before it can no longer be rolled
	// back.
	TransactionalDDL() bool
}

// Tx is a single database transaction.
type Tx interface {
	// Exec runs one SQL statement.
	Exec(ctx context.Context, stmt string) error

	// CopyCSV bulk-loads r into spec.Target. r starts with a header line that
	// is skipped, followed by delimited rows in CSV quoting. It returns the
	// number of rows loaded.
	CopyCSV(ctx context.Context, spec CopySpec, r io.Reader) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Repository for a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New opens a Repository using the registered backend factory.
//
// Errors:
//   - ErrUnsupportedBackend if cfg.Kind is empty or not registered.
//   - Whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrUnsupportedBackend)
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("%w: kind=%s (registered: %v)", ErrUnsupportedBackend, cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
