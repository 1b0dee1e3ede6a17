package helper

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ResolveEnv replaces an "ENV:NAME" value with the content of $NAME.
func ResolveEnv(in string) string {
	if strings.HasPrefix(in, "ENV:") {
		return os.Getenv(in[4:])
	}
	return in
}

// Getenv returns $key, or def when it is unset or empty.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SetDefaultStringIfEmpty returns def when in is empty. fields name the
// setting and its owner for the log line.
func SetDefaultStringIfEmpty(in, def string, fields ...string) string {
	if len(in) > 0 {
		return in
	}

	entry := log.WithField("default", def)
	if len(fields) > 0 {
		entry = entry.WithField("setting", fields[0])
	}
	if len(fields) > 1 {
		entry = entry.WithField("kind", fields[1])
	}
	entry.Debug("setting not specified, using default")
	return def
}
