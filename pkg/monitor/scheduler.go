package monitor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs the notify and reminder cycles of a Monitor on cron
// schedules (standard five field specs).
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(m *Monitor, notifySpec, reminderSpec string) (*Scheduler, error) {
	logger := cron.PrintfLogger(log.WithField("kind", "scheduler"))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(notifySpec, func() { m.NotifyCycle(context.Background()) }); err != nil {
		return nil, errors.Wrapf(err, "invalid notify schedule %q", notifySpec)
	}
	if _, err := c.AddFunc(reminderSpec, func() { m.ReminderCycle(context.Background()) }); err != nil {
		return nil, errors.Wrapf(err, "invalid reminder schedule %q", reminderSpec)
	}

	log.WithFields(log.Fields{"kind": "scheduler", "notify": notifySpec, "reminder": reminderSpec}).Info("scheduled probe runs")
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling; the returned context is done once a running cycle
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
