package conn

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Key builds the pool key of a (domain, token) pair.
func Key(domain, token string) string {
	return domain + "::" + token
}

type pooledConn struct {
	domain string
	conn   Conn
}

// Pool maps (domain, token) pairs to a single shared Conn. It is safe for
// concurrent use; concurrent Get calls for the same pair open one Conn.
type Pool struct {
	connector Connector

	mu    sync.Mutex
	conns map[string]pooledConn
}

func NewPool(connector Connector) *Pool {
	return &Pool{
		connector: connector,
		conns:     make(map[string]pooledConn),
	}
}

// Get returns the pooled Conn for the pair, opening it on first use.
func (p *Pool) Get(ctx context.Context, domain, token string) (Conn, error) {
	key := Key(domain, token)

	p.mu.Lock()
	defer p.mu.Unlock()

	if pc, ok := p.conns[key]; ok {
		return pc.conn, nil
	}

	fields := log.Fields{"kind": "conn", "domain": domain, "token": MaskToken(token)}
	log.WithFields(fields).Debug("opening connection")

	c, err := p.connector.Open(ctx, domain, token)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", domain)
	}

	p.conns[key] = pooledConn{domain: domain, conn: c}
	log.WithFields(fields).Info("connected")
	return c, nil
}

// Len returns the number of open connections.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Domains returns the sorted, de-duplicated domains with an open connection.
func (p *Pool) Domains() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(p.conns))
	out := make([]string, 0, len(p.conns))
	for _, pc := range p.conns {
		if _, ok := seen[pc.domain]; ok {
			continue
		}
		seen[pc.domain] = struct{}{}
		out = append(out, pc.domain)
	}
	sort.Strings(out)
	return out
}

// Close closes every pooled connection and empties the pool. The first close
// error is returned; the remaining connections are still closed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for key, pc := range p.conns {
		if err := pc.conn.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to close connection to %s", pc.domain)
		}
		delete(p.conns, key)
	}
	return firstErr
}
