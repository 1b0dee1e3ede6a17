package monitor

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Notifier delivers a failing status to humans.
type Notifier interface {
	Notify(ctx context.Context, status GlobalStatus) error
}

type NotifierFunc func(ctx context.Context, status GlobalStatus) error

func (f NotifierFunc) Notify(ctx context.Context, status GlobalStatus) error {
	return f(ctx, status)
}

// Gate keeps the set of failing probes and suppresses notifications whose
// failures were all reported before.
type Gate struct {
	notifier Notifier

	mu      sync.Mutex
	failing []string
}

func NewGate(notifier Notifier) *Gate {
	return &Gate{notifier: notifier}
}

// Failing returns the failure set of the last evaluated status.
func (g *Gate) Failing() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.failing...)
}

// Evaluate records the failure set of status and notifies unless it is empty
// or every failing name is in quiet. It reports whether the notifier was
// called. Notifier errors are logged, never returned.
func (g *Gate) Evaluate(ctx context.Context, status GlobalStatus, quiet []string) bool {
	failing := status.Failing()

	g.mu.Lock()
	g.failing = failing
	g.mu.Unlock()

	fields := log.Fields{"kind": "gate", "failing": failing, "quiet": quiet}

	if len(failing) == 0 {
		log.WithFields(fields).Debug("all probes successful")
		return false
	}

	if subset(failing, quiet) {
		log.WithFields(fields).Info("failures already reported, not notifying")
		return false
	}

	log.WithFields(fields).Info("sending failure notification")
	if err := g.notifier.Notify(ctx, status); err != nil {
		log.WithFields(fields).WithError(err).Error("failed to send notification")
	}
	return true
}

func subset(names, of []string) bool {
	set := make(map[string]struct{}, len(of))
	for _, n := range of {
		set[n] = struct{}{}
	}
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}
