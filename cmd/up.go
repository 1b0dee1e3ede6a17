package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/pkg/api"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/pidfile"
	"golang.org/x/time/rate"
)

var (
	pidFile      string
	triggerRate  float64
	triggerBurst int
)

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.PersistentFlags().StringVarP(&settings.Listen, "listen", "l", settings.Listen, "port, host:port or unix:///path.sock of the status api (env PORT)")
	upCmd.PersistentFlags().StringVar(&settings.IncomingToken, "incoming-token", settings.IncomingToken, "bearer token expected by the status api (env incomingToken)")
	upCmd.PersistentFlags().StringVar(&settings.NotifyCron, "cron", settings.NotifyCron, "schedule of the notify cycle (env CRON)")
	upCmd.PersistentFlags().StringVar(&settings.ReminderCron, "reminder-cron", settings.ReminderCron, "schedule of the daily reminder (env REMINDER_CRON)")
	upCmd.PersistentFlags().Float64Var(&triggerRate, "trigger-rate", 1, "on-demand runs per second allowed through /trigger; 0 disables the limit")
	upCmd.PersistentFlags().IntVar(&triggerBurst, "trigger-burst", 3, "burst of on-demand runs allowed through /trigger")
	upCmd.PersistentFlags().StringVarP(&pidFile, "pidfile", "", "", "write the process id to this file")
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run probes on schedule and serve the status api",
	Long:  "This sub-command loads the probes, runs them once, schedules the notify and reminder cycles and serves the status api",
	Run: func(cmd *cobra.Command, args []string) {
		if err := settings.Validate(); err != nil {
			log.Fatalf("invalid configuration: %s", err)
		}

		pid := pidfile.New(pidFile)
		if err := pid.Acquire(); err != nil {
			log.Fatalf("failed to write pid file to %q: %s", pidFile, err)
		}
		defer func() {
			if err := pid.Release(); err != nil {
				log.Errorf("error while cleaning up the pid file: %s", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		engine, pool, err := buildMonitor(ctx, settings, notifyTitle)
		if err != nil {
			log.Fatalf("failed to set up check engine: '%+v'", err)
		}
		defer func() {
			if err := pool.Close(); err != nil {
				log.WithError(err).Warn("failed to close connections")
			}
		}()

		scheduler, err := monitor.NewScheduler(engine, settings.NotifyCron, settings.ReminderCron)
		if err != nil {
			log.Fatalf("failed to schedule probe runs: %s", err)
		}

		status := engine.InitialRun(ctx)
		log.WithFields(log.Fields{"kind": "monitor", "status": status.Global.Status, "failing": status.Failing()}).Info("initial run complete")

		scheduler.Start()

		server := api.NewServer(engine, api.Options{
			Listen:       settings.ListenAddress(),
			Token:        settings.IncomingToken,
			TriggerRate:  rate.Limit(triggerRate),
			TriggerBurst: triggerBurst,
		})

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start()
		}()

		select {
		case <-ctx.Done():
			log.Info("received shutdown signal")
		case err := <-serverErr:
			if err != nil {
				log.WithError(err).Error("status api stopped with error")
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("status api did not shut down cleanly")
		}

		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn("timed out waiting for the running cycle to finish")
		}
		log.Info("monitor stopped")
	},
}
