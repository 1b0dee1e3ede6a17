package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trellisfw/trellis-monitor/internal/config"
	"github.com/trellisfw/trellis-monitor/internal/oadatest"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

const probesHCL = `
probe "bookmarks" {
  description = "Is bookmarks up for our token?"
  kind        = "pathTest"

  params {
    path = "/bookmarks"
  }
}

probe "asns" {
  description = "Is the asn list there?"
  kind        = "pathTest"

  params {
    path = "/bookmarks/trellisfw/asns"
  }
}

probe "default" {
  kind = "pathTest"
}
`

func testSettings(t *testing.T, srv *oadatest.Server) config.Settings {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trellis.hcl"), []byte(probesHCL), 0o644))

	return config.Settings{
		Domain:      srv.URL,
		Token:       oadatest.Token,
		ProbesDir:   dir,
		Probes:      "*",
		Concurrency: 2,
		Timeout:     5 * time.Second,
		NotifyName:  "test-server",
	}
}

func TestRunCheckReportsFailingProbes(t *testing.T) {
	srv := oadatest.NewServer(nil)
	defer srv.Close()

	status, err := runCheck(context.Background(), testSettings(t, srv))
	require.NoError(t, err)

	assert.Equal(t, "test-server", status.Global.Server)
	assert.Len(t, status.Tests, 2)
	assert.True(t, status.Tests["bookmarks"].OK())
	assert.Equal(t, []string{"asns"}, status.Failing())
	assert.Equal(t, "Is the asn list there?", status.Tests["asns"].Description)
	assert.Equal(t, probe.StatusFailure, status.Global.Status)
}

func TestRunCheckPassesWhenDocumentsExist(t *testing.T) {
	srv := oadatest.NewServer(nil)
	defer srv.Close()
	srv.Set("/bookmarks/trellisfw/asns", map[string]interface{}{})

	status, err := runCheck(context.Background(), testSettings(t, srv))
	require.NoError(t, err)
	assert.True(t, status.OK())
}

func TestRunCheckFiltersProbes(t *testing.T) {
	srv := oadatest.NewServer(nil)
	defer srv.Close()

	s := testSettings(t, srv)
	s.Probes = "book*"

	status, err := runCheck(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, status.Tests, 1)
	assert.True(t, status.OK())
}

func TestRunCheckFailsOnBadToken(t *testing.T) {
	srv := oadatest.NewServer(nil)
	defer srv.Close()

	s := testSettings(t, srv)
	s.Token = "wrong"

	_, err := runCheck(context.Background(), s)
	assert.ErrorContains(t, err, "failed to resolve probe")
}

func TestListProbesMasksTokens(t *testing.T) {
	descs := map[string]probe.Descriptor{
		"b": {Name: "b", Kind: "pathTest"},
		"a": {Name: "a", Kind: "ping", Domain: "redis://cache:6379", Token: "secret-token"},
	}

	listing := listProbes(descs, probe.Endpoint{Domain: "trellis.example.org", Token: "god-token"})
	require.Len(t, listing, 2)
	assert.Equal(t, "a", listing[0].Name)
	assert.Equal(t, "redis://cache:6379", listing[0].Domain)
	assert.Equal(t, "s..en", listing[0].Token)
	assert.Equal(t, "https://trellis.example.org", listing[1].Domain)
	assert.Equal(t, "g..en", listing[1].Token)
}

func TestPrintStatus(t *testing.T) {
	status := monitor.GlobalStatus{
		Global: monitor.Global{Server: "srv", Status: probe.StatusFailure, LastRunTime: "2026-03-10 12:00:00"},
		Tests: map[string]probe.Result{
			"bookmarks": probe.Success(),
			"asns":      probe.Failure("Failed to retrieve path /asns: gone"),
		},
	}

	var table bytes.Buffer
	require.NoError(t, printStatus(&table, status, false))
	assert.Contains(t, table.String(), "1 of 2 probes failing")
	assert.Contains(t, table.String(), "Failed to retrieve path /asns: gone")

	var js bytes.Buffer
	require.NoError(t, printStatus(&js, status, true))
	assert.Contains(t, js.String(), "lastruntime")
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetOutput(os.Stderr)
	defer log.SetFormatter(&log.TextFormatter{})

	require.NoError(t, setupLogging(loggingOptions{Level: "debug", Format: "json"}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	file := filepath.Join(t.TempDir(), "monitor.log")
	require.NoError(t, setupLogging(loggingOptions{Level: "info", File: file}))
	log.Info("written to file")
	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")

	assert.Error(t, setupLogging(loggingOptions{Level: "loud"}))
	assert.Error(t, setupLogging(loggingOptions{Level: "info", Format: "xml"}))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	VersionCmd.SetOut(&out)
	VersionCmd.Run(VersionCmd, nil)
	assert.Contains(t, out.String(), "trellis-monitor, version")
}
