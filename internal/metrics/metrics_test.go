package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	kind   string
	name   string
	value  float64
	labels Labels
}

type recordingBackend struct {
	mu      sync.Mutex
	obs     []observation
	flushes int
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{"counter", name, delta, labels})
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{"histogram", name, value, labels})
}

func (r *recordingBackend) Flush() error {
	r.flushes++
	return nil
}

func TestTimerStop_RecordsStatusAndDuration(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	base := time.Unix(1000, 0)
	calls := 0
	now := func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	}

	d := startTimer("normalize", now).Stop(nil)
	assert.Equal(t, 1500*time.Millisecond, d)

	_ = startTimer("copy", now).Stop(errors.New("boom"))

	require.Len(t, rb.obs, 4)
	assert.Equal(t, observation{"counter", StepTotal, 1, Labels{"step": "normalize", "status": "ok"}}, rb.obs[0])
	assert.Equal(t, observation{"histogram", StepDurationSeconds, 1.5, Labels{"step": "normalize", "status": "ok"}}, rb.obs[1])
	assert.Equal(t, "error", rb.obs[2].labels["status"])
	assert.Equal(t, "copy", rb.obs[3].labels["step"])
}

func TestAddRows_SkipsNonPositive(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	AddRows("read", 0)
	AddRows("read", -3)
	AddRows("written", 7)

	require.Len(t, rb.obs, 1)
	assert.Equal(t, observation{"counter", RowsTotal, 7, Labels{"kind": "written"}}, rb.obs[0])
}

func TestSetBackendNil_UsesNop(t *testing.T) {
	SetBackend(nil)
	assert.NotPanics(t, func() {
		IncCounter(FilesTotal, 1, Labels{"status": "loaded"})
		ObserveHistogram(StepDurationSeconds, 1, nil)
	})
	assert.NoError(t, Flush())
}

func TestFlush_DelegatesToBackend(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	require.NoError(t, Flush())
	assert.Equal(t, 1, rb.flushes)
}
