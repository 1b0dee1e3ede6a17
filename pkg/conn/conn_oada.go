package conn

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type oadaConn struct {
	domain string
	token  string
	client *http.Client
}

// OpenOADA opens a session to an OADA server. The session is verified with a
// HEAD request on /bookmarks; a network error or a 401/403 fails the open.
func OpenOADA(ctx context.Context, domain, token string, timeout time.Duration) (Reader, error) {
	c := &oadaConn{
		domain: strings.TrimRight(NormalizeDomain(domain), "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}

	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *oadaConn) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.domain + path
}

func (c *oadaConn) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	return c.client.Do(req)
}

func (c *oadaConn) Ping(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodHead, "/bookmarks")
	if err != nil {
		return err
	}
	res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return &StatusError{URL: c.url("/bookmarks"), Status: res.StatusCode, StatusText: http.StatusText(res.StatusCode)}
	}

	log.WithFields(log.Fields{"kind": "conn", "name": "oada", "status": "alive", "host": c.domain}).Debug()
	return nil
}

// Get reads the document at path and returns its decoded JSON value.
func (c *oadaConn) Get(ctx context.Context, path string) (interface{}, error) {
	res, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{URL: c.url(path), Status: res.StatusCode, StatusText: http.StatusText(res.StatusCode)}
	}

	var body interface{}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrapf(err, "failed to decode response of %s", c.url(path))
	}
	return body, nil
}

func (c *oadaConn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
