package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

// StaleKsuidKeys fails when any non-internal key of the document at "path"
// is a KSUID older than "maxage", or is not a KSUID at all. Numeric maxage
// is in seconds.
func StaleKsuidKeys(ctx context.Context, req Request) (Result, error) {
	path, err := req.Params.String("path")
	if err != nil {
		return Result{}, err
	}
	maxAge, err := req.Params.Duration("maxage", time.Second)
	if err != nil {
		return Result{}, err
	}
	r, err := req.Reader()
	if err != nil {
		return Result{}, err
	}

	doc, err := r.Get(ctx, path)
	if err != nil {
		return Failure("Failed to retrieve list of keys from path %s. Error was: %s", path, err), nil
	}

	keys := publicKeys(doc)
	sort.Strings(keys)

	var stale, invalid []string
	for _, k := range keys {
		id, err := ksuid.Parse(k)
		if err != nil {
			invalid = append(invalid, k)
			continue
		}
		if req.Now.Sub(id.Time()) > maxAge {
			stale = append(stale, k)
		}
	}

	var problems []string
	if len(stale) > 0 {
		problems = append(problems, fmt.Sprintf("Had %d ksuid keys beyond maxage of %s: %s", len(stale), maxAge, jsonList(stale)))
	}
	if len(invalid) > 0 {
		problems = append(problems, fmt.Sprintf("Had %d keys that are not ksuids: %s", len(invalid), jsonList(invalid)))
	}
	if len(problems) > 0 {
		return Failure("%s", strings.Join(problems, "; ")), nil
	}
	return Success(), nil
}

func jsonList(keys []string) string {
	b, _ := json.Marshal(keys)
	return string(b)
}
