// Package conn opens and pools sessions to the data stores that probes read
// from. A Conn is identified by its (domain, token) pair; the Pool keeps
// exactly one live Conn per pair for the lifetime of the process.
package conn

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotReader is returned by probes that need document reads from a
// connection that only supports liveness checks (redis, mysql, ...).
var ErrNotReader = errors.New("connection does not support path reads")

// Conn is a live session to one (domain, token) pair.
type Conn interface {
	// Ping verifies that the endpoint is reachable and accepts our credential.
	Ping(ctx context.Context) error
	Close() error
}

// Reader is implemented by connections backed by a document tree that can be
// read by path (the OADA REST API). Get returns the decoded JSON value.
type Reader interface {
	Conn
	Get(ctx context.Context, path string) (interface{}, error)
}

// StatusError is returned for non-2xx responses from an HTTP backed store.
type StatusError struct {
	URL        string
	Status     int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("{ url: %s, status: %d, statusText: %s }", e.URL, e.Status, e.StatusText)
}

// IsNotFound reports whether err (or any error it wraps) is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == 404
}

// AsReader returns c as a Reader or ErrNotReader.
func AsReader(c Conn) (Reader, error) {
	if r, ok := c.(Reader); ok {
		return r, nil
	}
	return nil, ErrNotReader
}

// MaskToken shortens a credential for log output: first char and last two.
func MaskToken(token string) string {
	if len(token) < 4 {
		return "***"
	}
	return token[:1] + ".." + token[len(token)-2:]
}
