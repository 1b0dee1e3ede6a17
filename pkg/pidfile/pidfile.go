// Package pidfile guards against two monitors running from the same host
// setup by holding an exclusive pid file for the life of the process.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type PIDFile struct {
	path string
	file *os.File
}

// New returns a pid file at path. An empty path disables it.
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire creates the pid file. A file left behind by a process that no
// longer runs is replaced; one held by a live process is an error.
func (f *PIDFile) Acquire() error {
	if f.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create pid file directory %q", filepath.Dir(f.path))
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		if err := f.removeIfStale(); err != nil {
			return err
		}
		return f.Acquire()
	}
	if err != nil {
		return errors.Wrapf(err, "failed to open pid file %q", f.path)
	}

	if _, err := fmt.Fprintf(file, "%d", os.Getpid()); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "failed to write pid to pid file %q", f.path)
	}

	f.file = file
	log.WithFields(log.Fields{"kind": "pidfile", "path": f.path}).Info("acquired pid file")
	return nil
}

func (f *PIDFile) removeIfStale() error {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return errors.Wrapf(err, "failed to read pid file %q", f.path)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return errors.Wrapf(err, "failed to parse pid file %q", f.path)
	}

	process, err := os.FindProcess(pid)
	if err == nil && process.Signal(syscall.Signal(0)) == nil {
		return errors.Errorf("pid file %q is held by running process %d", f.path, pid)
	}

	log.WithFields(log.Fields{"kind": "pidfile", "path": f.path, "pid": pid}).Info("removing stale pid file")
	if err := os.Remove(f.path); err != nil {
		return errors.Wrapf(err, "failed to remove pid file %q", f.path)
	}
	return nil
}

func (f *PIDFile) Release() error {
	if f.path == "" || f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close pid file %q", f.path)
	}
	f.file = nil

	if err := os.Remove(f.path); err != nil {
		return errors.Wrapf(err, "failed to remove pid file %q", f.path)
	}

	log.WithFields(log.Fields{"kind": "pidfile", "path": f.path}).Info("released pid file")
	return nil
}
