// Package monitor runs probe sets on a schedule, tracks the aggregated
// status and decides when failures are notified.
package monitor

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

// TimeLayout is the format of Global.LastRunTime.
const TimeLayout = "2006-01-02 15:04:05"

const neverRun = "never"

type Global struct {
	Server      string       `json:"server,omitempty"`
	Status      probe.Status `json:"status"`
	LastRunTime string       `json:"lastruntime"`
}

// GlobalStatus is the aggregated outcome of the latest run.
type GlobalStatus struct {
	Global Global                  `json:"global"`
	Tests  map[string]probe.Result `json:"tests"`
}

func (s GlobalStatus) OK() bool {
	return s.Global.Status == probe.StatusSuccess
}

// Failing returns the sorted names of failing tests.
func (s GlobalStatus) Failing() []string {
	var out []string
	for name, r := range s.Tests {
		if !r.OK() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Copy returns a deep copy of s.
func (s GlobalStatus) Copy() GlobalStatus {
	out := GlobalStatus{Global: s.Global, Tests: make(map[string]probe.Result, len(s.Tests))}
	for name, r := range s.Tests {
		if r.Extra != nil {
			extra := make(map[string]interface{}, len(r.Extra))
			for k, v := range r.Extra {
				extra[k] = v
			}
			r.Extra = extra
		}
		out.Tests[name] = r
	}
	return out
}

// StatusStore publishes the latest GlobalStatus. Readers always observe a
// complete status: Merge builds a new value and swaps it in.
type StatusStore struct {
	server  string
	now     func() time.Time
	current atomic.Pointer[GlobalStatus]
}

func NewStatusStore(server string) *StatusStore {
	s := &StatusStore{server: server, now: time.Now}
	s.current.Store(&GlobalStatus{
		Global: Global{Server: server, Status: probe.StatusFailure, LastRunTime: neverRun},
		Tests:  map[string]probe.Result{},
	})
	return s
}

// WithClock replaces the clock used to stamp runs.
func (s *StatusStore) WithClock(now func() time.Time) *StatusStore {
	s.now = now
	return s
}

func (s *StatusStore) Snapshot() GlobalStatus {
	return s.current.Load().Copy()
}

// Merge replaces the published status with results. Failures without a
// description get the description of their probe.
func (s *StatusStore) Merge(results map[string]probe.Result, descs map[string]probe.Descriptor) GlobalStatus {
	next := &GlobalStatus{
		Global: Global{Server: s.server, Status: probe.StatusSuccess},
		Tests:  make(map[string]probe.Result, len(results)),
	}

	for name, r := range results {
		if !r.OK() {
			next.Global.Status = probe.StatusFailure
			if r.Description == "" {
				r.Description = descs[name].Description
			}
		}
		next.Tests[name] = r
	}

	next.Global.LastRunTime = s.now().Local().Format(TimeLayout)
	s.current.Store(next)
	return next.Copy()
}
