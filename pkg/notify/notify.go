// Package notify delivers failing statuses to chat webhooks.
package notify

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

// Nop discards notifications. It is used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(_ context.Context, status monitor.GlobalStatus) error {
	log.WithFields(log.Fields{"kind": "notify", "failing": status.Failing()}).Debug("no notify url configured, dropping notification")
	return nil
}

// New returns a Slack notifier posting to url, or Nop when url is empty.
func New(url, server, title string, timeout time.Duration) (monitor.Notifier, error) {
	if url == "" {
		return Nop{}, nil
	}
	return NewSlack(url, server, title, timeout)
}
