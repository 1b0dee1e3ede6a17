// Package probe defines probe descriptors, the kinds that evaluate them and
// the executor that runs a resolved probe set once.
package probe

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Descriptor is a named probe as declared in a probe module.
type Descriptor struct {
	Name        string `hcl:",key" yaml:"-"`
	Description string `hcl:"description" yaml:"description"`
	Kind        string `hcl:"kind" yaml:"kind"`
	Domain      string `hcl:"domain" yaml:"domain"`
	Token       string `hcl:"token" yaml:"token"`
	Params      Params `hcl:"params" yaml:"params"`
}

// Resolved is a Descriptor bound to the pooled connection of its effective
// (domain, token) pair.
type Resolved struct {
	Descriptor
	Conn conn.Conn
}

// Result is the outcome of one probe execution. Extra carries kind specific
// fields and is flattened into the JSON object.
type Result struct {
	Status      Status
	Message     string
	Description string
	Extra       map[string]interface{}
}

func Success() Result {
	return Result{Status: StatusSuccess}
}

func Failure(format string, args ...interface{}) Result {
	return Result{Status: StatusFailure, Message: fmt.Sprintf(format, args...)}
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// With returns a copy of r with an extra field set.
func (r Result) With(key string, value interface{}) Result {
	extra := make(map[string]interface{}, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	extra[key] = value
	r.Extra = extra
	return r
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["status"] = r.Status
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.Description != "" {
		out["description"] = r.Description
	}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var in map[string]interface{}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	*r = Result{}
	for k, v := range in {
		switch k {
		case "status":
			s, _ := v.(string)
			r.Status = Status(s)
		case "message":
			r.Message, _ = v.(string)
		case "description":
			r.Description, _ = v.(string)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]interface{})
			}
			r.Extra[k] = v
		}
	}
	return nil
}

// Names returns the sorted names of a result map.
func Names(results map[string]Result) []string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
