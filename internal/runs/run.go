// Package runs implements the run registry (§4.5): a map from run id to a
// shared cell tracking {Pending, Ok(metric), Error(msg)}, updated by a
// background training or evaluation task and polled by clients via
// get_metric.
package runs

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotStarted is returned by GetMetric when the run is still Pending —
// surfaced at the RPC boundary as OutOfRange (§7, §8).
var ErrNotStarted = errors.New("runs: run has not emitted a metric yet")

// Metric is one progress point emitted by a training or evaluation run
// (§3). Within a run, (Epoch, Batch) is lexicographically non-decreasing.
type Metric struct {
	Epoch        int
	Batch        int
	Value        float32
	TotalEpochs  int
	TotalBatches int
}

type state int

const (
	statePending state = iota
	stateOk
	stateError
)

// Run is a single background job's shared cell. The zero value is not
// usable; construct with the Registry.
type Run struct {
	mu     sync.RWMutex
	st     state
	metric Metric
	err    error
}

// SetMetric transitions the run to Ok, overwriting any previous metric
// (§3: "Ok is overwritten with the latest metric").
func (r *Run) SetMetric(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st = stateOk
	r.metric = m
}

// Fail transitions the run to its terminal Error state (§4.4 step 4).
func (r *Run) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st = stateError
	r.err = err
}

// GetMetric returns the run's current metric, ErrNotStarted while
// Pending, or the run's terminal error.
func (r *Run) GetMetric() (Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch r.st {
	case statePending:
		return Metric{}, ErrNotStarted
	case stateError:
		return Metric{}, r.err
	default:
		return r.metric, nil
	}
}

// Registry maps run ids to their shared cell (§4.5).
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRegistry returns an empty run registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

// Create allocates a fresh Pending run and registers it before the caller
// starts the background task, eliminating the race between creation and
// the first client poll (§4.5).
func (reg *Registry) Create() (id string, run *Run) {
	id = uuid.NewString()
	run = &Run{}
	reg.mu.Lock()
	reg.runs[id] = run
	reg.mu.Unlock()
	return id, run
}

// Get looks up a run by id.
func (reg *Registry) Get(id string) (*Run, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	run, ok := reg.runs[id]
	return run, ok
}
