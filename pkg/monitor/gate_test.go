package monitor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

type recordingNotifier struct {
	calls []monitor.GlobalStatus
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, status monitor.GlobalStatus) error {
	r.calls = append(r.calls, status)
	return r.err
}

func statusWith(results map[string]probe.Result) monitor.GlobalStatus {
	return monitor.NewStatusStore("srv").Merge(results, nil)
}

func TestGateSuppressesKnownFailures(t *testing.T) {
	n := &recordingNotifier{}
	gate := monitor.NewGate(n)
	status := statusWith(map[string]probe.Result{
		"A": probe.Failure("a"),
		"B": probe.Failure("b"),
		"C": probe.Success(),
	})

	assert.False(t, gate.Evaluate(context.Background(), status, []string{"A", "B"}))
	assert.Empty(t, n.calls)

	assert.True(t, gate.Evaluate(context.Background(), status, []string{"A"}))
	if assert.Len(t, n.calls, 1) {
		assert.Equal(t, []string{"A", "B"}, n.calls[0].Failing(), "notification carries the full failure set")
	}
	assert.Equal(t, []string{"A", "B"}, gate.Failing())
}

func TestGateDoesNotNotifyWhenClean(t *testing.T) {
	n := &recordingNotifier{}
	gate := monitor.NewGate(n)

	assert.False(t, gate.Evaluate(context.Background(), statusWith(map[string]probe.Result{"A": probe.Success()}), nil))
	assert.Empty(t, n.calls)
	assert.Empty(t, gate.Failing())
}

func TestGateSwallowsNotifierErrors(t *testing.T) {
	n := &recordingNotifier{err: errors.New("webhook unreachable")}
	gate := monitor.NewGate(n)

	called := gate.Evaluate(context.Background(), statusWith(map[string]probe.Result{"A": probe.Failure("a")}), nil)

	assert.True(t, called)
	assert.Equal(t, []string{"A"}, gate.Failing())
}
