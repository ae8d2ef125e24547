package asyncftp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gonzalop/asyncftp/internal/ratelimit"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTimeout sets the timeout for connection and operations.
// It bounds dialing, each read and write on a data connection, and the wait
// for each control reply. A zero timeout disables all of them.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout: %v", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithIdleTimeout sets the maximum idle time before sending NOOP keep-alive.
// If the connection is idle for longer than this duration, a NOOP command
// will be queued automatically to prevent the server from closing the
// connection. Set to 0 to disable automatic keep-alive.
//
// Example:
//
//	client, _ := asyncftp.Dial("ftp.example.com:21",
//	    asyncftp.WithIdleTimeout(5*time.Minute),
//	)
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.idleTimeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and replies will be logged at debug level.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := asyncftp.Dial("ftp.example.com:21", asyncftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom dialer for the control and data connections.
// A *net.Dialer can be used to configure source addresses, keep-alive
// settings, etc.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return fmt.Errorf("nil dialer")
		}
		c.dialer = dialer
		return nil
	}
}

// WithBandwidthLimit caps data connection throughput, in bytes per second,
// shared by all transfers of the client. Zero means unlimited.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// WithMetrics registers a collector for command and transfer metrics.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Client) error {
		c.metrics = collector
		return nil
	}
}

// WithProgress registers a callback invoked as data channel bytes move.
// command is the transfer command (e.g., "RETR file.bin") and transferred
// the running total for that transfer. The callback runs on the data
// channel goroutine.
func WithProgress(fn func(command string, transferred int64)) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithCustomListParser adds a custom directory listing parser.
// Custom parsers are tried before the built-in parsers (EPLF, DOS, Unix).
// This allows handling non-standard LIST formats.
func WithCustomListParser(parser ListingParser) Option {
	return func(c *Client) error {
		c.parsers = append([]ListingParser{parser}, c.parsers...)
		return nil
	}
}
