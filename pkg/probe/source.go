package probe

import (
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ReservedName is never enabled, whatever the patterns.
const ReservedName = "default"

// Source yields probe descriptors by name.
type Source interface {
	Load() (map[string]Descriptor, error)
}

// StaticSource is an in-memory Source.
type StaticSource map[string]Descriptor

func (s StaticSource) Load() (map[string]Descriptor, error) {
	out := make(map[string]Descriptor, len(s))
	for name, d := range s {
		d.Name = name
		out[name] = d
	}
	return out, nil
}

// Load reads src and keeps the probes enabled by patterns.
func Load(src Source, patterns string) (map[string]Descriptor, error) {
	descs, err := src.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load probe definitions")
	}
	return Filter(descs, patterns)
}

// Filter keeps descriptors whose name matches any of the comma separated glob
// patterns. An empty pattern list enables everything.
func Filter(descs map[string]Descriptor, patterns string) (map[string]Descriptor, error) {
	globs := SplitPatterns(patterns)
	for _, g := range globs {
		if _, err := path.Match(g, ""); err != nil {
			return nil, errors.Wrapf(err, "invalid probe pattern %q", g)
		}
	}

	out := make(map[string]Descriptor)
	for name, d := range descs {
		if name == ReservedName {
			continue
		}
		for _, g := range globs {
			if ok, _ := path.Match(g, name); ok {
				out[name] = d
				break
			}
		}
	}

	log.WithFields(log.Fields{"kind": "registry", "loaded": len(descs), "enabled": len(out)}).Debug("filtered probes")
	return out, nil
}

func SplitPatterns(patterns string) []string {
	var out []string
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}

// SortedNames returns the names of descs in lexical order.
func SortedNames(descs map[string]Descriptor) []string {
	names := make([]string, 0, len(descs))
	for name := range descs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
