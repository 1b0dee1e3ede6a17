package conn

import (
	"context"
	"net"
	"net/smtp"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/internal/helper"
)

const defaultSMTPPort = "25"

// smtpConn dials per Ping; SMTP servers drop idle sessions quickly.
type smtpConn struct {
	addr    string
	timeout time.Duration
}

func OpenSMTP(ctx context.Context, host, port string, timeout time.Duration) (Conn, error) {
	port = helper.SetDefaultStringIfEmpty(port, defaultSMTPPort, "port", "smtp")

	c := &smtpConn{addr: net.JoinHostPort(host, port), timeout: timeout}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *smtpConn) Ping(ctx context.Context) error {
	d := net.Dialer{Timeout: s.timeout}
	nc, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}

	host, _, _ := net.SplitHostPort(s.addr)
	client, err := smtp.NewClient(nc, host)
	if err != nil {
		_ = nc.Close()
		return err
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return err
	}
	if err := client.Quit(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"kind": "conn", "name": "smtp", "status": "alive", "host": s.addr}).Debug()
	return nil
}

func (s *smtpConn) Close() error {
	return nil
}
