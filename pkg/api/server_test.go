package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trellisfw/trellis-monitor/pkg/api"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
	"golang.org/x/time/rate"
)

const token = "incoming"

func newMonitor(t *testing.T) *monitor.Monitor {
	kinds := probe.NewKinds()
	kinds.MustRegister("ok", func(context.Context, probe.Request) (probe.Result, error) {
		return probe.Success(), nil
	})

	m := monitor.New(
		[]probe.Resolved{{Descriptor: probe.Descriptor{Name: "bookmarks", Kind: "ok"}}},
		&probe.Executor{Kinds: kinds},
		monitor.NewStatusStore("srv"),
		monitor.NewGate(monitor.NotifierFunc(func(context.Context, monitor.GlobalStatus) error { return nil })),
	)
	m.FatalHandler = func(err error) { t.Fatalf("engine fault: %s", err) }
	return m
}

func get(t *testing.T, url, bearer string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func TestStatusRequiresToken(t *testing.T) {
	srv := httptest.NewServer(api.NewServer(newMonitor(t), api.Options{Token: token}).Handler())
	defer srv.Close()

	for _, path := range []string{"/", "/trigger", "/watch"} {
		res, body := get(t, srv.URL+path, "wrong")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		assert.Empty(t, body, path)

		res, body = get(t, srv.URL+path, "")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		assert.Empty(t, body, path)
	}
}

func TestStatusReturnsCurrentSnapshot(t *testing.T) {
	srv := httptest.NewServer(api.NewServer(newMonitor(t), api.Options{Token: token}).Handler())
	defer srv.Close()

	res, body := get(t, srv.URL+"/", token)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"global":{"server":"srv","status":"failure","lastruntime":"never"},"tests":{}}`, string(body))
}

func TestTriggerRunsProbes(t *testing.T) {
	m := newMonitor(t)
	srv := httptest.NewServer(api.NewServer(m, api.Options{Token: token}).Handler())
	defer srv.Close()

	_, body := get(t, srv.URL+"/trigger", token)

	var status monitor.GlobalStatus
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, probe.StatusSuccess, status.Global.Status)
	assert.NotEqual(t, "never", status.Global.LastRunTime)
	assert.Equal(t, probe.StatusSuccess, status.Tests["bookmarks"].Status)
}

func TestTriggerIsRateLimited(t *testing.T) {
	m := newMonitor(t)
	srv := httptest.NewServer(api.NewServer(m, api.Options{Token: token, TriggerRate: rate.Every(time.Hour), TriggerBurst: 1}).Handler())
	defer srv.Close()

	_, body := get(t, srv.URL+"/trigger", token)
	var first monitor.GlobalStatus
	require.NoError(t, json.Unmarshal(body, &first))
	require.Equal(t, probe.StatusSuccess, first.Global.Status)

	// a limited request gets the snapshot of the previous run
	_, body = get(t, srv.URL+"/trigger", token)
	var second monitor.GlobalStatus
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, first, second)
}

func TestTriggerClientGoneDoesNotFailRun(t *testing.T) {
	var notified int32
	kinds := probe.NewKinds()
	kinds.MustRegister("slow", func(ctx context.Context, _ probe.Request) (probe.Result, error) {
		select {
		case <-ctx.Done():
			return probe.Failure("Failed to retrieve path /bookmarks: %s", ctx.Err()), nil
		case <-time.After(300 * time.Millisecond):
			return probe.Success(), nil
		}
	})
	m := monitor.New(
		[]probe.Resolved{{Descriptor: probe.Descriptor{Name: "bookmarks", Kind: "slow"}}},
		&probe.Executor{Kinds: kinds},
		monitor.NewStatusStore("srv"),
		monitor.NewGate(monitor.NotifierFunc(func(context.Context, monitor.GlobalStatus) error {
			atomic.AddInt32(&notified, 1)
			return nil
		})),
	)
	m.FatalHandler = func(err error) { t.Errorf("engine fault: %s", err) }

	srv := httptest.NewServer(api.NewServer(m, api.Options{Token: token}).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/trigger", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	_, err = http.DefaultClient.Do(req)
	require.Error(t, err, "client gives up before the run completes")

	require.Eventually(t, func() bool {
		return !m.Running() && m.Store().Snapshot().Global.LastRunTime != "never"
	}, 2*time.Second, 20*time.Millisecond)

	status := m.Store().Snapshot()
	assert.Equal(t, probe.StatusSuccess, status.Global.Status, status.Tests["bookmarks"].Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&notified))
}

func TestWrongTokenOfSameLengthIsRejected(t *testing.T) {
	srv := httptest.NewServer(api.NewServer(newMonitor(t), api.Options{Token: token}).Handler())
	defer srv.Close()

	res, body := get(t, srv.URL+"/", "incominG")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Empty(t, body)

	res, _ = get(t, srv.URL+"/", token)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestWatchStreamsStatuses(t *testing.T) {
	m := newMonitor(t)
	srv := httptest.NewServer(api.NewServer(m, api.Options{Token: token}).Handler())
	defer srv.Close()

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/watch", header)
	require.NoError(t, err)
	defer conn.Close()

	var initial monitor.GlobalStatus
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, "never", initial.Global.LastRunTime)

	m.Trigger(context.Background())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update monitor.GlobalStatus
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, probe.StatusSuccess, update.Global.Status)
}
