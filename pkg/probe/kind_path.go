package probe

import (
	"context"
	"strings"

	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

const dayIndexLayout = "2006-01-02"

// PathTest succeeds iff the document at "path" can be read.
func PathTest(ctx context.Context, req Request) (Result, error) {
	path, err := req.Params.String("path")
	if err != nil {
		return Result{}, err
	}
	r, err := req.Reader()
	if err != nil {
		return Result{}, err
	}

	if _, err := r.Get(ctx, path); err != nil {
		return Failure("Failed to retrieve path %s: %s", path, err), nil
	}
	return Success(), nil
}

// CountKeys counts the non-internal keys of the document at "path", or of
// today's partition when "index" is day-index. A missing document counts zero.
func CountKeys(ctx context.Context, req Request) (Result, error) {
	path, err := req.Params.String("path")
	if err != nil {
		return Result{}, err
	}
	index, err := req.Params.OptionalString("index")
	if err != nil {
		return Result{}, err
	}
	r, err := req.Reader()
	if err != nil {
		return Result{}, err
	}

	switch index {
	case "":
	case "day-index":
		path = strings.TrimRight(path, "/") + "/day-index/" + req.Now.Local().Format(dayIndexLayout)
	default:
		return Failure("Unknown type of index passed %s", index), nil
	}

	doc, err := r.Get(ctx, path)
	if conn.IsNotFound(err) {
		return Success().With("count", 0), nil
	}
	if err != nil {
		return Failure("Failed to count keys from path %s: %s", path, err), nil
	}

	return Success().With("count", len(publicKeys(doc))), nil
}

// Ping succeeds iff the probe's connection answers a liveness check. It works
// for every backend.
func Ping(ctx context.Context, req Request) (Result, error) {
	if err := req.Conn.Ping(ctx); err != nil {
		return Failure("Failed to ping endpoint: %s", err), nil
	}
	return Success(), nil
}

// publicKeys returns the keys of an object document that do not start with
// "_". Non-object documents have no keys.
func publicKeys(doc interface{}) []string {
	m, ok := doc.(map[string]interface{})
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
