package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

// Monitor runs a resolved probe set. At most one run is in flight; a run
// requested meanwhile returns the current status without running.
type Monitor struct {
	probes   []probe.Resolved
	descs    map[string]probe.Descriptor
	executor *probe.Executor
	store    *StatusStore
	gate     *Gate

	// FatalHandler receives faults of the run orchestration itself. The
	// default logs and exits the process.
	FatalHandler func(error)

	running atomic.Bool

	watchersMu sync.Mutex
	watchers   map[chan GlobalStatus]struct{}
}

func New(probes []probe.Resolved, executor *probe.Executor, store *StatusStore, gate *Gate) *Monitor {
	descs := make(map[string]probe.Descriptor, len(probes))
	for _, p := range probes {
		descs[p.Name] = p.Descriptor
	}

	return &Monitor{
		probes:   probes,
		descs:    descs,
		executor: executor,
		store:    store,
		gate:     gate,
		FatalHandler: func(err error) {
			log.WithField("kind", "monitor").WithError(err).Fatal("check engine failed")
		},
		watchers: make(map[chan GlobalStatus]struct{}),
	}
}

func (m *Monitor) Store() *StatusStore {
	return m.store
}

func (m *Monitor) Probes() []probe.Resolved {
	return m.probes
}

// Running reports whether a run is in flight.
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// InitialRun is the run made at startup. All failures are notified.
func (m *Monitor) InitialRun(ctx context.Context) GlobalStatus {
	status, _ := m.run(ctx, "initial", func() []string { return nil })
	return status
}

// NotifyCycle runs the probes and notifies only when a probe fails that
// was not failing in the previous run.
func (m *Monitor) NotifyCycle(ctx context.Context) (GlobalStatus, bool) {
	return m.run(ctx, "notify", m.gate.Failing)
}

// ReminderCycle runs the probes and notifies every current failure.
func (m *Monitor) ReminderCycle(ctx context.Context) (GlobalStatus, bool) {
	return m.run(ctx, "reminder", func() []string { return nil })
}

// Trigger is an on-demand run with the semantics of the notify cycle.
func (m *Monitor) Trigger(ctx context.Context) (GlobalStatus, bool) {
	return m.run(ctx, "trigger", m.gate.Failing)
}

func (m *Monitor) run(ctx context.Context, cycle string, quietList func() []string) (status GlobalStatus, ran bool) {
	fields := log.Fields{"kind": "monitor", "cycle": cycle}

	if !m.running.CompareAndSwap(false, true) {
		log.WithFields(fields).Info("run already in progress, skipping")
		return m.store.Snapshot(), false
	}
	defer m.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			m.FatalHandler(errors.Wrapf(err, "uncaught error in %s run", cycle))
			status, ran = m.store.Snapshot(), false
		}
	}()

	ctx = detach(ctx)
	quiet := quietList()
	log.WithFields(fields).WithField("probes", len(m.probes)).Debug("running probes")

	results := m.executor.Run(ctx, m.probes)
	status = m.store.Merge(results, m.descs)

	if status.OK() {
		log.WithFields(fields).Info("all probes successful")
	}
	m.gate.Evaluate(ctx, status, quiet)

	m.publish(status)
	return status, true
}

// Subscribe returns a channel that receives the status after every completed
// run. Slow subscribers only see the latest status.
func (m *Monitor) Subscribe() (<-chan GlobalStatus, func()) {
	ch := make(chan GlobalStatus, 1)

	m.watchersMu.Lock()
	m.watchers[ch] = struct{}{}
	m.watchersMu.Unlock()

	return ch, func() {
		m.watchersMu.Lock()
		defer m.watchersMu.Unlock()
		if _, ok := m.watchers[ch]; ok {
			delete(m.watchers, ch)
			close(ch)
		}
	}
}

func (m *Monitor) publish(status GlobalStatus) {
	m.watchersMu.Lock()
	defer m.watchersMu.Unlock()

	for ch := range m.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- status.Copy()
	}
}

// detached carries the values of its parent but never its cancellation or
// deadline. Probes own their timeouts; the caller of a run only waits.
type detached struct {
	parent context.Context
}

func detach(ctx context.Context) context.Context {
	return detached{parent: ctx}
}

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }

func (detached) Done() <-chan struct{} { return nil }

func (detached) Err() error { return nil }

func (d detached) Value(key interface{}) interface{} { return d.parent.Value(key) }
