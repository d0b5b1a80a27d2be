// Package metrics holds the prometheus collectors wakubase updates while
// polling the relay node. All methods are safe on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "wakubase"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is a private registry plus the wakubase collectors.
type Metrics struct {
	Registry *prometheus.Registry

	polls            *prometheus.CounterVec
	subscribes       *prometheus.CounterVec
	publishes        *prometheus.CounterVec
	messagesReceived prometheus.Counter
	nodeHealth       prometheus.Gauge
	logStatements    *prometheus.CounterVec
}

// New registers the wakubase collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Message polls against the relay node, by result.",
		}, []string{"result"}),
		subscribes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribes_total",
			Help:      "Content topic subscription requests, by result.",
		}, []string{"result"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Messages published through the relay node, by result.",
		}, []string{"result"}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "New messages merged into the active topic.",
		}),
		nodeHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_health",
			Help:      "Relay node health: 0 unhealthy, 1 checking, 2 healthy.",
		}),
		logStatements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_statements_total",
			Help:      "Log statements written, by level.",
		}, []string{"level"}),
	}
	reg.MustRegister(
		m.polls,
		m.subscribes,
		m.publishes,
		m.messagesReceived,
		m.nodeHealth,
		m.logStatements,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObservePoll counts one message poll.
func (m *Metrics) ObservePoll(err error) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result(err)).Inc()
}

// ObserveSubscribe counts one subscribe request.
func (m *Metrics) ObserveSubscribe(err error) {
	if m == nil {
		return
	}
	m.subscribes.WithLabelValues(result(err)).Inc()
}

// ObservePublish counts one publish request.
func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result(err)).Inc()
}

// AddMessages counts newly merged messages.
func (m *Metrics) AddMessages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.messagesReceived.Add(float64(n))
}

// SetNodeHealth records the health status as its numeric value.
func (m *Metrics) SetNodeHealth(value int) {
	if m == nil {
		return
	}
	m.nodeHealth.Set(float64(value))
}

// CountLog counts one log statement at level.
func (m *Metrics) CountLog(level string) {
	if m == nil {
		return
	}
	m.logStatements.WithLabelValues(level).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
