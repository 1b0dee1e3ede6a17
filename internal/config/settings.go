package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/trellisfw/trellis-monitor/internal/helper"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

const (
	DefaultListen       = "8080"
	DefaultNotifyCron   = "*/15 * * * *"
	DefaultReminderCron = "0 8 * * *"
	DefaultProbesDir    = "/etc/trellis-monitor.d"
)

// Settings is the runtime configuration of the monitor.
type Settings struct {
	// Domain and Token are the endpoint of probes without an override.
	Domain string
	Token  string

	// IncomingToken is the bearer token expected by the status API.
	IncomingToken string
	// Listen is a port, a host:port pair or unix:///path.sock.
	Listen string

	NotifyURL    string
	NotifyName   string
	NotifyCron   string
	ReminderCron string

	ProbesDir   string
	Probes      string
	Concurrency int
	Timeout     time.Duration
}

// LoadDotEnv loads a .env file into the environment. Variables already set
// win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "could not load %s", path)
}

// SettingsFromEnv returns the settings with defaults taken from the
// environment.
func SettingsFromEnv() Settings {
	s := Settings{
		Domain:        helper.Getenv("DOMAIN", "localhost"),
		Token:         helper.Getenv("TOKEN", "god"),
		IncomingToken: helper.Getenv("incomingToken", "god"),
		Listen:        helper.Getenv("PORT", DefaultListen),
		NotifyURL:     os.Getenv("notifyurl"),
		NotifyName:    os.Getenv("NOTIFY_NAME"),
		NotifyCron:    helper.Getenv("CRON", DefaultNotifyCron),
		ReminderCron:  helper.Getenv("REMINDER_CRON", DefaultReminderCron),
		ProbesDir:     helper.Getenv("PROBES_DIR", DefaultProbesDir),
		Probes:        helper.Getenv("PROBES", "*"),
		Concurrency:   1,
		Timeout:       conn.DefaultTimeout,
	}

	if n, err := strconv.Atoi(os.Getenv("CONCURRENCY")); err == nil {
		s.Concurrency = n
	}
	if d, err := time.ParseDuration(os.Getenv("TIMEOUT")); err == nil {
		s.Timeout = d
	}

	return s
}

// ServerName is the label used in notifications and the status document.
func (s Settings) ServerName() string {
	if s.NotifyName != "" {
		return s.NotifyName
	}
	return conn.NormalizeDomain(s.Domain)
}

// ListenAddress turns a bare port into ":port".
func (s Settings) ListenAddress() string {
	if _, err := strconv.Atoi(s.Listen); err == nil {
		return ":" + s.Listen
	}
	return s.Listen
}

func (s Settings) Validate() error {
	if s.Domain == "" {
		return errors.New("domain must not be empty")
	}
	if s.ProbesDir == "" {
		return errors.New("probes directory must not be empty")
	}
	if s.IncomingToken == "" {
		return errors.New("incoming token must not be empty")
	}
	if s.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if _, err := cron.ParseStandard(s.NotifyCron); err != nil {
		return errors.Wrapf(err, "invalid notify cron %q", s.NotifyCron)
	}
	if _, err := cron.ParseStandard(s.ReminderCron); err != nil {
		return errors.Wrapf(err, "invalid reminder cron %q", s.ReminderCron)
	}
	return nil
}
