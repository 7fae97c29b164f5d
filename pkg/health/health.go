// Package health exposes a table's counters and probes over HTTP.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tpc"

// Probe is the view of a table the checks need.
type Probe interface {
	Exists() bool
	NumPlayers() int
	MaxPlayers() int
}

// Metrics are the per-process game counters. Each process keeps its own
// registry, so counts are what this player did or saw.
type Metrics struct {
	Registry     *prometheus.Registry
	Joins        prometheus.Counter
	CardsDealt   prometheus.Counter
	CardsPlayed  prometheus.Counter
	PlaysSeen    prometheus.Counter
	TurnAdvances prometheus.Counter
	LogFailures  prometheus.Counter
	Players      prometheus.Gauge
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// NewMetrics builds the counters and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry:     prometheus.NewRegistry(),
		Joins:        counter("joins_total", "Players admitted by this process."),
		CardsDealt:   counter("cards_dealt_total", "Cards written to player channels."),
		CardsPlayed:  counter("cards_played_total", "Cards played by this process."),
		PlaysSeen:    counter("plays_seen_total", "Plays by other players observed while waiting."),
		TurnAdvances: counter("turn_advances_total", "Turns handed to the next player."),
		LogFailures:  counter("log_write_failures_total", "Shared log entries that could not be written."),
		Players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Players seated at the table.",
		}),
	}
	m.Registry.MustRegister(m.Joins, m.CardsDealt, m.CardsPlayed, m.PlaysSeen,
		m.TurnAdvances, m.LogFailures, m.Players)
	return m
}

// Handler returns the health handler for p: liveness reports whether the
// shared table is still mapped, readiness whether the roster is full.
// Check results are exported as metrics on m's registry.
func (m *Metrics) Handler(p Probe) healthcheck.Handler {
	h := healthcheck.NewMetricsHandler(m.Registry, namespace)
	h.AddLivenessCheck("table-mapped", func() error {
		if !p.Exists() {
			return errors.New("shared table is gone")
		}
		return nil
	})
	h.AddReadinessCheck("roster-full", func() error {
		m.Players.Set(float64(p.NumPlayers()))
		if seated, seats := p.NumPlayers(), p.MaxPlayers(); seated < seats {
			return fmt.Errorf("%d of %d players seated", seated, seats)
		}
		return nil
	})
	return h
}

// Mux serves /metrics, /live and /ready.
func (m *Metrics) Mux(p Probe) *http.ServeMux {
	h := m.Handler(p)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	return mux
}

// Serve listens on addr until ctx is done and in-flight requests have
// finished. The bound address is sent on bound, if not nil, once the
// listener is up.
func (m *Metrics) Serve(ctx context.Context, addr string, p Probe, bound chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", addr, err)
	}
	if bound != nil {
		bound <- ln.Addr().String()
	}

	srv := &http.Server{Handler: m.Mux(p), ReadHeaderTimeout: 5 * time.Second}
	shutdown := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(shutdown)
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	})

	err = srv.Serve(ln)
	// in-flight probes must be done before the caller unmaps the table
	if !stop() {
		<-shutdown
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
