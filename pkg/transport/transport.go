// Package transport opens and drives the byte-stream channel between
// the shell and a ProcessorCI controller. Serial devices are the
// primary endpoint; tcp:// and ws:// endpoints connect to bench setups
// and served boards. Every backend presents the same polled-read
// contract: a Read blocks for at most a short poll interval and
// returns (0, nil) when the device is silent, so callers accumulate
// frames against their own deadline.
package transport

import (
	"strings"
	"time"
)

const (
	// DefaultBaudRate matches the ProcessorCI controller default.
	DefaultBaudRate = 115200

	// DefaultReadTimeout bounds a full-frame receive.
	DefaultReadTimeout = 1 * time.Second

	// pollInterval bounds a single backend Read on a silent device.
	pollInterval = 100 * time.Millisecond

	// dialTimeout bounds tcp:// and ws:// connection attempts.
	dialTimeout = 2 * time.Second
)

// Transport is an open channel to a controller. It is owned by exactly
// one session. One goroutine may Read while another Writes; no other
// concurrent use is supported.
type Transport interface {
	// Read fills p with whatever arrived within one poll interval.
	// A silent device yields (0, nil), not an error.
	Read(p []byte) (int, error)

	// Write sends p in full.
	Write(p []byte) (int, error)

	// Flush discards input the controller sent but nobody read.
	Flush() error

	// SetReadTimeout adjusts the full-frame receive budget used by
	// ReadFull.
	SetReadTimeout(d time.Duration) error

	// ReadTimeout reports the current full-frame receive budget.
	ReadTimeout() time.Duration

	Close() error
}

// Config carries the endpoint parameters.
type Config struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// Option adjusts a Config.
type Option func(*Config)

// WithBaudRate sets the serial baud rate. Ignored by tcp:// and ws://
// endpoints.
func WithBaudRate(rate int) Option {
	return func(c *Config) { c.BaudRate = rate }
}

// WithReadTimeout sets the full-frame receive budget.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// Open connects to an endpoint. "tcp://host:port" dials a TCP bench
// device, "ws://" or "wss://" dials a served board, and anything else
// is treated as a serial device path.
func Open(endpoint string, opts ...Option) (Transport, error) {
	cfg := Config{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case strings.HasPrefix(endpoint, "tcp://"):
		return openTCP(strings.TrimPrefix(endpoint, "tcp://"), cfg)
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return openWebSocket(endpoint, cfg)
	default:
		return openSerial(endpoint, cfg)
	}
}

// ReadFull reads from t until buf is full, accumulating partial reads,
// and fails with ErrTimeout once the transport's read timeout lapses.
// It never blocks much past that budget. Like io.ReadFull it reports
// how many bytes landed in buf, so callers can resume a partial frame.
func ReadFull(t Transport, buf []byte) (int, error) {
	deadline := time.Now().Add(t.ReadTimeout())
	n := 0
	for n < len(buf) {
		if !time.Now().Before(deadline) {
			return n, ErrTimeout
		}
		r, err := t.Read(buf[n:])
		if err != nil {
			return n, err
		}
		n += r
		if r == 0 {
			time.Sleep(pollInterval / 10)
		}
	}
	return n, nil
}
