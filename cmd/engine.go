package cmd

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/internal/config"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/notify"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

// loadProbes returns the enabled probe definitions of the probes directory.
func loadProbes(s config.Settings) (map[string]probe.Descriptor, error) {
	descs, err := probe.Load(config.NewDirSource(s.ProbesDir), s.Probes)
	if err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		log.WithFields(log.Fields{"kind": "config", "dir": s.ProbesDir, "probes": s.Probes}).Warn("no probes enabled")
	}
	return descs, nil
}

// buildMonitor loads and resolves the probes and assembles the check engine.
// The returned pool must be closed by the caller.
func buildMonitor(ctx context.Context, s config.Settings, title string) (*monitor.Monitor, *conn.Pool, error) {
	descs, err := loadProbes(s)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to load probes from %s", s.ProbesDir)
	}

	pool := conn.NewPool(conn.DefaultConnector{Timeout: s.Timeout})
	probes, err := probe.Resolve(ctx, descs, probe.Endpoint{Domain: s.Domain, Token: s.Token}, pool)
	if err != nil {
		_ = pool.Close()
		return nil, nil, err
	}

	notifier, err := notify.New(s.NotifyURL, s.ServerName(), title, s.Timeout)
	if err != nil {
		_ = pool.Close()
		return nil, nil, err
	}

	executor := &probe.Executor{
		Kinds:       probe.DefaultKinds(),
		Concurrency: s.Concurrency,
	}
	m := monitor.New(probes, executor, monitor.NewStatusStore(s.ServerName()), monitor.NewGate(notifier))

	log.WithFields(log.Fields{
		"kind":        "monitor",
		"probes":      probe.SortedNames(descs),
		"connections": pool.Len(),
	}).Info("check engine ready")
	return m, pool, nil
}
