package health

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	exists     bool
	players    int
	maxPlayers int
}

func (f *fakeTable) Exists() bool    { return f.exists }
func (f *fakeTable) NumPlayers() int { return f.players }
func (f *fakeTable) MaxPlayers() int { return f.maxPlayers }

func value(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func status(h http.Handler, path string) int {
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, path, nil))
	return rw.Code
}

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.CardsPlayed.Inc()
	m.CardsPlayed.Add(2)
	assert.Equal(t, float64(3), value(m.CardsPlayed))
	assert.Equal(t, float64(0), value(m.Joins))
}

func TestProbes(t *testing.T) {
	m := NewMetrics()
	tbl := &fakeTable{exists: true, players: 2, maxPlayers: 4}
	mux := m.Mux(tbl)

	assert.Equal(t, http.StatusOK, status(mux, "/live"))
	assert.Equal(t, http.StatusServiceUnavailable, status(mux, "/ready"))

	tbl.players = 4
	assert.Equal(t, http.StatusOK, status(mux, "/ready"))

	g := &dto.Metric{}
	require.NoError(t, m.Players.Write(g))
	assert.Equal(t, float64(4), g.GetGauge().GetValue())

	tbl.exists = false
	assert.Equal(t, http.StatusServiceUnavailable, status(mux, "/live"))
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	m.TurnAdvances.Inc()
	rw := httptest.NewRecorder()
	m.Mux(&fakeTable{exists: true}).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "tpc_turn_advances_total 1")
}

func TestServe(t *testing.T) {
	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	bound := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, "127.0.0.1:0", &fakeTable{exists: true}, bound) }()

	var addr string
	select {
	case addr = <-bound:
	case err := <-done:
		t.Fatalf("serve: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "tpc_joins_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
