package probe

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

const timeLayout = "2006-01-02 15:04:05"

// MaxAge fails when the document at "path" was last modified more than
// "maxage" ago. Numeric maxage is in milliseconds.
func MaxAge(ctx context.Context, req Request) (Result, error) {
	path, err := req.Params.String("path")
	if err != nil {
		return Result{}, err
	}
	maxAge, err := req.Params.Duration("maxage", time.Millisecond)
	if err != nil {
		return Result{}, err
	}
	r, err := req.Reader()
	if err != nil {
		return Result{}, err
	}

	modified, err := lastModified(ctx, r, path)
	if err != nil {
		return Failure("Failed to retrieve modified time of path %s: %s", path, err), nil
	}

	if req.Now.Sub(modified) > maxAge {
		return Failure("Last modification of %s was %s, older than %s", path, modified.Local().Format(timeLayout), maxAge), nil
	}
	return Success(), nil
}

// RelativeAge fails when the "leader" document has been stable for longer
// than "maxage" while the "follower" is still older than it. Numeric maxage
// is in milliseconds.
func RelativeAge(ctx context.Context, req Request) (Result, error) {
	leader, err := req.Params.String("leader")
	if err != nil {
		return Result{}, err
	}
	follower, err := req.Params.String("follower")
	if err != nil {
		return Result{}, err
	}
	maxAge, err := req.Params.Duration("maxage", time.Millisecond)
	if err != nil {
		return Result{}, err
	}
	r, err := req.Reader()
	if err != nil {
		return Result{}, err
	}

	leaderModified, err := lastModified(ctx, r, leader)
	if err != nil {
		return Failure("Failed to retrieve modified time of leader %s: %s", leader, err), nil
	}
	followerModified, err := lastModified(ctx, r, follower)
	if err != nil {
		return Failure("Failed to retrieve modified time of follower %s: %s", follower, err), nil
	}

	if followerModified.Before(leaderModified) && req.Now.Sub(leaderModified) > maxAge {
		return Failure(
			"Follower %s (modified %s) has not caught up with leader %s (modified %s) within %s",
			follower, followerModified.Local().Format(timeLayout),
			leader, leaderModified.Local().Format(timeLayout),
			maxAge,
		), nil
	}
	return Success(), nil
}

// RevAge fails when the latest revision of the resource at "path" is older
// than "maxage". Numeric maxage is in seconds.
func RevAge(ctx context.Context, req Request) (Result, error) {
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

	rev, modified, err := latestRev(ctx, r, path)
	if err != nil {
		return Failure("Failed in retrieving age of latest rev. Error was: %s", err), nil
	}

	if req.Now.Sub(modified) > maxAge {
		return Failure("Age of latest rev (%s) is %s, older than %g hours", rev, modified.Local().Format(timeLayout), maxAge.Hours()), nil
	}
	return Success(), nil
}

func lastModified(ctx context.Context, r conn.Reader, path string) (time.Time, error) {
	v, err := r.Get(ctx, strings.TrimRight(path, "/")+"/_meta/modified")
	if err != nil {
		return time.Time{}, err
	}
	secs, err := toFloat(v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid modified time of %s", path)
	}
	return unixSeconds(secs), nil
}

// latestRev reads <path>/_rev and the change document of that revision, and
// returns the modification time recorded for the resource itself.
func latestRev(ctx context.Context, r conn.Reader, path string) (string, time.Time, error) {
	path = strings.TrimRight(path, "/")

	v, err := r.Get(ctx, path+"/_rev")
	if err != nil {
		return "", time.Time{}, err
	}
	rev := revString(v)

	v, err = r.Get(ctx, path+"/_meta/_changes/"+rev)
	if err != nil {
		return "", time.Time{}, err
	}

	changes, _ := v.([]interface{})
	for _, c := range changes {
		change, ok := c.(map[string]interface{})
		if !ok || change["path"] != "" {
			continue
		}
		body, _ := change["body"].(map[string]interface{})
		meta, _ := body["_meta"].(map[string]interface{})
		secs, err := toFloat(meta["modified"])
		if err != nil {
			secs = 0
		}
		if br, ok := body["_rev"]; ok {
			rev = revString(br)
		}
		return rev, unixSeconds(secs), nil
	}

	return rev, unixSeconds(0), nil
}

func revString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, errors.Errorf("expected a number, got %T", v)
	}
}

func unixSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9))
}
