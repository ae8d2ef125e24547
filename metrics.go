package asyncftp

import "time"

// MetricsCollector is an optional interface for collecting client metrics.
// Implementations can send metrics to monitoring systems like Prometheus,
// StatsD, DataDog, etc. See the metrics/prom package for a Prometheus
// implementation.
//
// Methods are called with the session lock held or from data channel
// goroutines and must not block.
type MetricsCollector interface {
	// RecordCommand records the final reply of a command.
	// cmd is the command verb (e.g., "DELE", "PASV", "RETR").
	// success indicates a 2xx final reply.
	// duration is the time between writing the command and its final reply.
	RecordCommand(cmd string, success bool, duration time.Duration)

	// RecordTransfer records a finished data channel transfer.
	// operation is the transfer verb ("LIST", "NLST", "RETR" or "STOR").
	// bytes is the number of payload bytes moved.
	// duration is how long the data channel was open.
	RecordTransfer(operation string, bytes int64, duration time.Duration)
}
