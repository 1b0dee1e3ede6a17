package cmd

import (
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/trellisfw/trellis-monitor/internal/config"
	"github.com/trellisfw/trellis-monitor/pkg/notify"
)

var (
	settings      config.Settings
	notifyTitle   string
	enableProfile bool
	logOptions    loggingOptions
)

func init() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("ignoring .env file")
	}
	settings = config.SettingsFromEnv()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settings.Domain, "domain", settings.Domain, "default domain of probes without their own (env DOMAIN)")
	flags.StringVar(&settings.Token, "token", settings.Token, "default token of probes without their own (env TOKEN)")
	flags.StringVarP(&settings.ProbesDir, "probes-dir", "c", settings.ProbesDir, "directory containing the probe modules (env PROBES_DIR)")
	flags.StringVar(&settings.Probes, "probes", settings.Probes, "comma separated glob patterns of enabled probes (env PROBES)")
	flags.IntVar(&settings.Concurrency, "concurrency", settings.Concurrency, "number of probes run in parallel (env CONCURRENCY)")
	flags.DurationVar(&settings.Timeout, "timeout", settings.Timeout, "timeout of connections and requests (env TIMEOUT)")
	flags.StringVar(&settings.NotifyURL, "notify-url", settings.NotifyURL, "slack webhook notified about failures (env notifyurl)")
	flags.StringVar(&settings.NotifyName, "notify-name", settings.NotifyName, "server name shown in notifications (env NOTIFY_NAME)")
	flags.StringVar(&notifyTitle, "notify-title", notify.DefaultTitle, "template of the notification title")

	flags.StringVar(&logOptions.Level, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&logOptions.Format, "log-format", "text", "log format (text or json)")
	flags.StringVar(&logOptions.File, "log-file", "", "also write logs to this file, rotated by size")
	flags.BoolVar(&enableProfile, "profile", false, "enable pprof http server")
}

var rootCmd = &cobra.Command{
	Use:     "trellis-monitor",
	Short:   "trellis-monitor - scheduled health checks for trellis data stores",
	Long:    "trellis-monitor periodically runs probes against OADA and other data stores, serves the aggregated status and notifies about new failures",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(logOptions); err != nil {
			return err
		}
		if enableProfile {
			go serveProfile()
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Warn("Running 'trellis-monitor' without any arguments - defaulting to 'up'.")
		upCmd.Run(cmd, args)
	},
}

func serveProfile() {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Errorf("pprof server failed to listen: %v", err)
		return
	}
	log.Infof("Starting pprof server on http://%s/debug/pprof/", listener.Addr().String())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.Serve(listener); err != nil {
		log.Errorf("pprof server error: %v", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
