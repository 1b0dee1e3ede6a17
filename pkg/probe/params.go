package probe

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/internal/helper"
)

// Params are the kind specific parameters of a probe.
type Params map[string]interface{}

// String returns the string parameter key. ENV: values are resolved.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", errors.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("parameter %q must be a string, got %T", key, v)
	}
	return helper.ResolveEnv(s), nil
}

// OptionalString returns the string parameter key or "" when unset.
func (p Params) OptionalString(key string) (string, error) {
	if _, ok := p[key]; !ok {
		return "", nil
	}
	return p.String(key)
}

// Duration reads a maximum age. Strings are parsed as Go durations
// ("15m", "12h"); plain numbers are taken in unit.
func (p Params) Duration(key string, unit time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok {
		return 0, errors.Errorf("missing parameter %q", key)
	}

	var n float64
	switch t := v.(type) {
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case float64:
		n = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, errors.Wrapf(err, "invalid parameter %q", key)
		}
		n = f
	case string:
		s := helper.ResolveEnv(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			n = f
			break
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid parameter %q", key)
		}
		return d, nil
	default:
		return 0, errors.Errorf("parameter %q must be a number or duration, got %T", key, v)
	}

	return time.Duration(n * float64(unit)), nil
}
