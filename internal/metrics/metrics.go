// Package metrics is the backend-neutral instrumentation layer used by the
// loader. Code records through the package-level helpers; main decides which
// Backend (if any) receives the data.
package metrics

import (
	"sync"
	"time"
)

// Metric names understood by backends.
const (
	StepTotal           = "loader_step_total"
	StepDurationSeconds = "loader_step_duration_seconds"
	RowsTotal           = "loader_rows_total"
	FilesTotal          = "loader_files_total"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter on the current backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records value on the current backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the current backend.
func Flush() error {
	return current().Flush()
}

// AddRows counts rows of the given kind ("read", "written", "duplicate",
// "repaired", "copied").
func AddRows(kind string, n int64) {
	if n <= 0 {
		return
	}
	IncCounter(RowsTotal, float64(n), Labels{"kind": kind})
}

// Timer measures one pipeline stage.
type Timer struct {
	step  string
	start time.Time
	now   func() time.Time
}

// StartTimer starts timing step.
func StartTimer(step string) *Timer {
	return startTimer(step, time.Now)
}

func startTimer(step string, now func() time.Time) *Timer {
	return &Timer{step: step, start: now(), now: now}
}

// Stop records the stage as "ok" or "error" depending on err and returns the
// elapsed time.
func (t *Timer) Stop(err error) time.Duration {
	d := t.now().Sub(t.start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	l := Labels{"step": t.step, "status": status}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
	return d
}
