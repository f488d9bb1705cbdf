// Package observability holds the Prometheus instruments of the messaging backend.
// Every recorder is nil-safe so components can run without metrics in tests.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Push outcomes.
const (
	PushDelivered = "delivered"
	PushDropped   = "dropped"
	PushOffline   = "offline"
)

type Metrics struct {
	messagesSent      prometheus.Counter
	sendFailures      *prometheus.CounterVec
	sendLatency       prometheus.Histogram
	pushes            *prometheus.CounterVec
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
	censoredWords     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatdm_messages_sent_total",
			Help: "Messages durably persisted by the delivery pipeline.",
		}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatdm_send_failures_total",
			Help: "Rejected or failed sends grouped by kind.",
		}, []string{"kind"}),
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatdm_send_latency_seconds",
			Help:    "End to end latency of a send, upload included.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatdm_pushes_total",
			Help: "Live push attempts grouped by outcome.",
		}, []string{"outcome"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatdm_connections_active",
			Help: "Users currently holding a live connection.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatdm_connections_total",
			Help: "Live connections accepted since start.",
		}),
		censoredWords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatdm_censored_words_total",
			Help: "Words masked by moderation before persistence.",
		}),
	}

	reg.MustRegister(
		m.messagesSent,
		m.sendFailures,
		m.sendLatency,
		m.pushes,
		m.activeConnections,
		m.connectionsTotal,
		m.censoredWords,
	)
	return m
}

func (m *Metrics) RecordSent(started time.Time) {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
	m.sendLatency.Observe(time.Since(started).Seconds())
}

func (m *Metrics) RecordSendFailure(kind string) {
	if m == nil {
		return
	}
	m.sendFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPush(outcome string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCensored(count int) {
	if m == nil || count == 0 {
		return
	}
	m.censoredWords.Add(float64(count))
}

// SetConnections mirrors the registry size after a connect or disconnect.
func (m *Metrics) SetConnections(count int) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

func (m *Metrics) RecordConnect() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
}
