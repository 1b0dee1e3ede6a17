package probe_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

type countingConnector struct {
	opened int32
}

func (c *countingConnector) Open(_ context.Context, domain, _ string) (conn.Conn, error) {
	if domain == "https://down.example.com" {
		return nil, errors.New("dial tcp: connection refused")
	}
	atomic.AddInt32(&c.opened, 1)
	return &pingConn{}, nil
}

func TestResolveSharesConnectionsPerPair(t *testing.T) {
	connector := &countingConnector{}
	pool := conn.NewPool(connector)
	defaults := probe.Endpoint{Domain: "trellis.example.com", Token: "t1"}

	descs := map[string]probe.Descriptor{
		"a": {Kind: "pathTest"},
		"b": {Kind: "pathTest"},
		"c": {Kind: "pathTest", Domain: "other.example.com"},
		"d": {Kind: "pathTest", Token: "t2"},
	}

	rs, err := probe.Resolve(context.Background(), descs, defaults, pool)
	require.NoError(t, err)
	require.Len(t, rs, 4)

	byName := map[string]probe.Resolved{}
	for _, r := range rs {
		byName[r.Name] = r
	}

	assert.Same(t, byName["a"].Conn, byName["b"].Conn)
	assert.NotSame(t, byName["a"].Conn, byName["c"].Conn)
	assert.Equal(t, "https://other.example.com", byName["c"].Domain)
	assert.Equal(t, "t1", byName["c"].Token)
	assert.Equal(t, "https://trellis.example.com", byName["d"].Domain)
	assert.Equal(t, int32(3), connector.opened)
	assert.Equal(t, 3, pool.Len())
}

func TestResolveFailsNamingProbeAndDomain(t *testing.T) {
	pool := conn.NewPool(&countingConnector{})

	_, err := probe.Resolve(context.Background(), map[string]probe.Descriptor{
		"broken": {Kind: "pathTest", Domain: "down.example.com"},
	}, probe.Endpoint{Domain: "trellis.example.com"}, pool)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to resolve probe "broken"`)
	assert.Contains(t, err.Error(), "down.example.com")
}

func TestResolveOnlyOpensRequiredPairs(t *testing.T) {
	connector := &countingConnector{}
	pool := conn.NewPool(connector)

	_, err := probe.Resolve(context.Background(), map[string]probe.Descriptor{
		"a": {Kind: "pathTest", Domain: "trellis.example.com"},
	}, probe.Endpoint{Domain: "down.example.com"}, pool)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://trellis.example.com"}, pool.Domains())
}

func TestResolveSharesConnectionForEquivalentDomains(t *testing.T) {
	connector := &countingConnector{}
	pool := conn.NewPool(connector)

	rs, err := probe.Resolve(context.Background(), map[string]probe.Descriptor{
		"bare":     {Kind: "pathTest"},
		"explicit": {Kind: "pathTest", Domain: "https://trellis.example.com"},
		"spaced":   {Kind: "pathTest", Domain: " trellis.example.com "},
	}, probe.Endpoint{Domain: "trellis.example.com", Token: "t1"}, pool)

	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Same(t, rs[0].Conn, rs[1].Conn)
	assert.Same(t, rs[0].Conn, rs[2].Conn)
	assert.Equal(t, int32(1), connector.opened)
	assert.Equal(t, []string{"https://trellis.example.com"}, pool.Domains())
}
