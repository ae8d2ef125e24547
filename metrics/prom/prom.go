// Package prom reports asyncftp client metrics to Prometheus.
//
//	m := prom.NewMetrics("myapp")
//	prometheus.MustRegister(m.Collectors()...)
//	client, err := asyncftp.Dial(addr, asyncftp.WithMetrics(m))
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements asyncftp.MetricsCollector.
type Metrics struct {
	Commands         *prometheus.HistogramVec
	TransferBytes    *prometheus.CounterVec
	TransferDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors. They must be registered before they
// are exported; see Collectors.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Commands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ftp",
			Name:      "command_duration_seconds",
			Help:      "FTP command duration from write to final reply, in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5, 10, 20},
		}, []string{
			"cmd",
			"result", // ok, error
		}),
		TransferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ftp",
			Name:      "transfer_bytes_total",
			Help:      "Payload bytes moved over data connections.",
		}, []string{"operation"}),
		TransferDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ftp",
			Name:      "transfer_duration_seconds",
			Help:      "Data connection lifetime of completed transfers, in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"operation"}),
	}
}

// Collectors returns all prometheus metrics as collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.Commands,
		m.TransferBytes,
		m.TransferDuration,
	}
}

// RecordCommand implements asyncftp.MetricsCollector.
func (m *Metrics) RecordCommand(cmd string, success bool, duration time.Duration) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.Commands.WithLabelValues(cmd, result).Observe(duration.Seconds())
}

// RecordTransfer implements asyncftp.MetricsCollector.
func (m *Metrics) RecordTransfer(operation string, bytes int64, duration time.Duration) {
	m.TransferBytes.WithLabelValues(operation).Add(float64(bytes))
	m.TransferDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
