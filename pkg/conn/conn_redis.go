package conn

import (
	"context"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type redisConn struct {
	addr   string
	client *redis.Client
}

// OpenRedis connects to a redis:// URL. A non-empty token overrides the
// password of the URL.
func OpenRedis(ctx context.Context, domain, token string) (Conn, error) {
	opts, err := redis.ParseURL(domain)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redis url")
	}
	if token != "" {
		opts.Password = token
	}

	c := &redisConn{
		addr:   opts.Addr,
		client: redis.NewClient(opts),
	}

	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c, nil
}

func (r *redisConn) Ping(ctx context.Context) error {
	if err := r.client.WithContext(ctx).Ping().Err(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"kind": "conn", "name": "redis", "status": "alive", "host": r.addr}).Debug()
	return nil
}

func (r *redisConn) Close() error {
	return r.client.Close()
}
