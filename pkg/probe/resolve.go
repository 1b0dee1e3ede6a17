package probe

import (
	"context"

	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

// Endpoint is the default (domain, token) pair of probes without an override.
type Endpoint struct {
	Domain string
	Token  string
}

// Resolve binds every descriptor to the pooled connection of its effective
// endpoint. Only pairs used by descs are opened. Domains are normalized first,
// so "example.com" and "https://example.com" share one connection.
func Resolve(ctx context.Context, descs map[string]Descriptor, defaults Endpoint, pool *conn.Pool) ([]Resolved, error) {
	out := make([]Resolved, 0, len(descs))

	for _, name := range SortedNames(descs) {
		d := descs[name]
		d.Name = name

		if d.Domain == "" {
			d.Domain = defaults.Domain
		}
		if d.Token == "" {
			d.Token = defaults.Token
		}
		d.Domain = conn.NormalizeDomain(d.Domain)

		c, err := pool.Get(ctx, d.Domain, d.Token)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve probe %q", name)
		}

		out = append(out, Resolved{Descriptor: d, Conn: c})
	}

	return out, nil
}
