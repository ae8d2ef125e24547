package asyncftp

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.DiscardHandler)
	dialer := &net.Dialer{Timeout: time.Second}
	metrics := &recordingMetrics{}

	c := &Client{parsers: defaultParsers()}
	opts := []Option{
		WithTimeout(5 * time.Second),
		WithIdleTimeout(time.Minute),
		WithLogger(logger),
		WithDialer(dialer),
		WithBandwidthLimit(1024),
		WithMetrics(metrics),
		WithProgress(func(string, int64) {}),
		WithCustomListParser(&customParser{}),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			t.Fatalf("option failed: %v", err)
		}
	}

	if c.timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.timeout)
	}
	if c.idleTimeout != time.Minute {
		t.Errorf("idleTimeout = %v", c.idleTimeout)
	}
	if c.logger != logger || c.dialer != dialer || c.metrics != metrics {
		t.Error("logger, dialer or metrics not applied")
	}
	if c.limiter == nil || c.progress == nil {
		t.Error("limiter or progress not applied")
	}
	if _, ok := c.parsers[0].(*customParser); !ok || len(c.parsers) != 4 {
		t.Errorf("custom parser not first: %T of %d", c.parsers[0], len(c.parsers))
	}
}

func TestOptions_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opt  Option
		want string
	}{
		{"negative timeout", WithTimeout(-time.Second), "negative timeout"},
		{"nil logger", WithLogger(nil), "nil logger"},
		{"nil dialer", WithDialer(nil), "nil dialer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opt(&Client{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestOptions_BandwidthZeroIsUnlimited(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if err := WithBandwidthLimit(0)(c); err != nil {
		t.Fatal(err)
	}
	if c.limiter != nil {
		t.Error("zero bandwidth limit should disable limiting")
	}
}

// countingDialer records the addresses it dials.
type countingDialer struct {
	net.Dialer
	addrs chan string
}

func (d *countingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.addrs <- address
	return d.Dialer.DialContext(ctx, network, address)
}

func TestOptions_DialerUsedForDataConnections(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.put("f", "x")
	d := &countingDialer{addrs: make(chan string, 8)}
	c := dialMock(t, ms, WithDialer(d))

	if _, err := c.Retrieve(context.Background(), "f"); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	close(d.addrs)
	var addrs []string
	for a := range d.addrs {
		addrs = append(addrs, a)
	}
	if len(addrs) != 2 || addrs[0] != ms.addr {
		t.Errorf("dialed %v, want control then data address", addrs)
	}
}
