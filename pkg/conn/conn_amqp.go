package conn

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type amqpConn struct {
	host string
	conn *amqp.Connection
}

// OpenAmqp dials an amqp:// or amqps:// URL. Credentials and virtual host
// are taken from the URL.
func OpenAmqp(ctx context.Context, uri string, timeout time.Duration) (Conn, error) {
	parsed, err := amqp.ParseURI(uri)
	if err != nil {
		return nil, errors.Wrap(err, "invalid amqp url")
	}

	conn, err := amqp.DialConfig(uri, amqp.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial amqp host %s", parsed.Host)
	}

	c := &amqpConn{host: parsed.Host, conn: conn}
	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Ping opens and closes a channel on the connection.
func (a *amqpConn) Ping(_ context.Context) error {
	if a.conn.IsClosed() {
		return amqp.ErrClosed
	}

	ch, err := a.conn.Channel()
	if err != nil {
		return err
	}
	_ = ch.Close()

	log.WithFields(log.Fields{"kind": "conn", "name": "amqp", "status": "alive", "host": a.host}).Debug()
	return nil
}

func (a *amqpConn) Close() error {
	if a.conn.IsClosed() {
		return nil
	}
	return a.conn.Close()
}
