package pidfile_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trellisfw/trellis-monitor/pkg/pidfile"
)

func TestPidFileCanBeAcquiredAndReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "monitor.pid")
	f := pidfile.New(path)

	require.NoError(t, f.Acquire())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d", os.Getpid()), string(content))

	require.NoError(t, f.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPidFileReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.pid")
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0o644))

	f := pidfile.New(path)
	require.NoError(t, f.Acquire())
	require.NoError(t, f.Release())
}

func TestPidFileCannotBeAcquiredWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.pid")

	f1 := pidfile.New(path)
	require.NoError(t, f1.Acquire())
	defer f1.Release()

	err := pidfile.New(path).Acquire()
	assert.ErrorContains(t, err, "is held by running process")
}

func TestPidFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o644))

	assert.ErrorContains(t, pidfile.New(path).Acquire(), "failed to parse pid file")
}

func TestEmptyPathIsDisabled(t *testing.T) {
	f := pidfile.New("")
	require.NoError(t, f.Acquire())
	require.NoError(t, f.Release())
}
