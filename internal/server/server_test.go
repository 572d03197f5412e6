package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/metrics"
	"github.com/lonng/timewheel/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	sched *scheduler.Scheduler
	srv   *Server
	http  *httptest.Server
	ticks chan time.Time
}

func newFixture(t *testing.T) *fixture {
	log.SetLogger(log.NewWriterLogger(io.Discard))

	reg := prometheus.NewRegistry()
	ticks := make(chan time.Time)
	sched, err := scheduler.New("http", 100*time.Second, time.Second,
		scheduler.WithTickSource(ticks),
		scheduler.WithIDNode(1),
		scheduler.WithMetrics(metrics.NewRegistry(reg)),
	)
	require.NoError(t, err)
	sched.Start()

	srv := New(sched, reg)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
		sched.Close()
	})
	return &fixture{sched: sched, srv: srv, http: hs, ticks: ticks}
}

func (f *fixture) do(t *testing.T, method, path string) (int, map[string]any) {
	req, err := http.NewRequest(method, f.http.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestServer_Timers(t *testing.T) {
	t.Run("Create and cancel", func(t *testing.T) {
		f := newFixture(t)

		status, body := f.do(t, http.MethodPost, "/timers?id=4&delay=40s")
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, float64(4), body["id"])
		assert.Equal(t, float64(40), body["slot"])
		assert.Equal(t, 1, f.srv.Pending())
		assert.Equal(t, 1, f.sched.Wheel().Len())

		status, _ = f.do(t, http.MethodPost, "/timers?id=4&delay=10s")
		assert.Equal(t, http.StatusConflict, status)

		status, _ = f.do(t, http.MethodDelete, "/timers?id=4")
		assert.Equal(t, http.StatusNoContent, status)
		assert.Equal(t, 0, f.srv.Pending())
		assert.Equal(t, 0, f.sched.Wheel().Len())

		status, body = f.do(t, http.MethodDelete, "/timers?id=4")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body["error"], "timer not found")
	})

	t.Run("Bad requests", func(t *testing.T) {
		f := newFixture(t)

		tests := []struct {
			name   string
			method string
			path   string
			status int
		}{
			{"missing id", http.MethodPost, "/timers?delay=1s", http.StatusBadRequest},
			{"bad delay", http.MethodPost, "/timers?id=1&delay=soon", http.StatusBadRequest},
			{"negative delay", http.MethodPost, "/timers?id=1&delay=-1s", http.StatusBadRequest},
			{"beyond horizon", http.MethodPost, "/timers?id=1&delay=100s", http.StatusBadRequest},
			{"cancel bad id", http.MethodDelete, "/timers?id=x", http.StatusBadRequest},
			{"method", http.MethodGet, "/timers", http.StatusMethodNotAllowed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				status, body := f.do(t, tt.method, tt.path)
				assert.Equal(t, tt.status, status)
				assert.NotEmpty(t, body["error"])
			})
		}
		assert.Equal(t, 0, f.srv.Pending())
	})

	t.Run("Scheduler closed", func(t *testing.T) {
		f := newFixture(t)
		status, _ := f.do(t, http.MethodPost, "/timers?id=1&delay=10s")
		require.Equal(t, http.StatusCreated, status)
		assert.Equal(t, 1, f.srv.Pending())

		f.sched.Close()
		// 关闭时时间轮已丢弃所有定时器
		assert.Equal(t, 0, f.srv.Pending())

		status, _ = f.do(t, http.MethodPost, "/timers?id=2&delay=1s")
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})

	t.Run("Cancel after scheduler closed", func(t *testing.T) {
		f := newFixture(t)
		status, _ := f.do(t, http.MethodPost, "/timers?id=1&delay=10s")
		require.Equal(t, http.StatusCreated, status)

		f.sched.Close()
		status, body := f.do(t, http.MethodDelete, "/timers?id=1")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Contains(t, body["error"], "scheduler closed")
	})

	t.Run("Close drops tracked timers", func(t *testing.T) {
		f := newFixture(t)
		status, _ := f.do(t, http.MethodPost, "/timers?id=1&delay=10s")
		require.Equal(t, http.StatusCreated, status)

		f.srv.Close()
		assert.Equal(t, 0, f.srv.Pending())
	})
}

func TestServer_Events(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return f.srv.hub.len() == 1
	}, time.Second, 10*time.Millisecond)

	for _, path := range []string{"/timers?id=1&delay=1s", "/timers?id=2&delay=2s"} {
		status, _ := f.do(t, http.MethodPost, path)
		require.Equal(t, http.StatusCreated, status)
	}
	f.ticks <- time.Now()
	f.ticks <- time.Now()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, Event{ID: 1, Cursor: 1}, ev)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, Event{ID: 2, Cursor: 2}, ev)

	assert.Eventually(t, func() bool {
		return f.srv.Pending() == 0
	}, time.Second, 10*time.Millisecond)

	// 触发之后可以复用 ID
	status, _ := f.do(t, http.MethodPost, "/timers?id=1&delay=1s")
	assert.Equal(t, http.StatusCreated, status)

	// 客户端断开后订阅者被移除
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return f.srv.hub.len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodPost, "/timers?id=1&delay=1s")
	require.Equal(t, http.StatusCreated, status)

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `timewheel_wheel_timers_scheduled_total{wheel_name="http"} 1`)
	assert.Contains(t, string(data), `timewheel_wheel_timers_pending{wheel_name="http"} 1`)
}
