package controller

import (
	"errors"
	"log"
	"sync"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/protocol"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// DefaultPollBudget bounds how many read-timeout windows a polled
// operation (memory test, run-until-break) waits before giving up.
const DefaultPollBudget = 60

// Interface is a session with a ProcessorCI controller. It owns its
// Transport exclusively and serializes every operation, so one command
// is in flight at a time.
type Interface struct {
	tr         transport.Transport
	log        *log.Logger
	pollBudget int

	mu sync.Mutex
}

// Option adjusts a new Interface.
type Option func(*Interface)

// WithLogger enables command/response tracing through l.
func WithLogger(l *log.Logger) Option {
	return func(c *Interface) { c.log = l }
}

// WithPollBudget overrides the poll budget for long-running operations.
func WithPollBudget(n int) Option {
	return func(c *Interface) {
		if n > 0 {
			c.pollBudget = n
		}
	}
}

// New wraps an open transport in a controller session. The session
// takes ownership: Close closes the transport.
func New(tr transport.Transport, opts ...Option) *Interface {
	c := &Interface{
		tr:         tr,
		pollBudget: DefaultPollBudget,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying transport.
func (c *Interface) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.Close()
}

func (c *Interface) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Printf(format, args...)
	}
}

// sendCommand frames op with its immediate and writes it.
func (c *Interface) sendCommand(op byte, imm uint32) error {
	frame, err := protocol.Command(op, imm)
	if err != nil {
		return err
	}
	c.logf("send op=0x%02X imm=0x%06X", op, imm)
	_, err = c.tr.Write(frame)
	return err
}

// sendWord writes a raw data word.
func (c *Interface) sendWord(v uint32) error {
	_, err := c.tr.Write(protocol.Word(v))
	return err
}

// readWord receives one response word within the transport's read
// timeout.
func (c *Interface) readWord() (uint32, error) {
	buf := make([]byte, protocol.WordSize)
	if _, err := transport.ReadFull(c.tr, buf); err != nil {
		return 0, err
	}
	w, err := protocol.ParseWord(buf)
	if err != nil {
		return 0, err
	}
	c.logf("recv 0x%08X", w)
	return w, nil
}

// pollFull keeps receiving into buf across read-timeout windows until
// the frame completes or the poll budget runs out. Long-running
// controller operations answer whenever the hardware finishes, which
// can be many timeout windows later.
func (c *Interface) pollFull(buf []byte) error {
	n := 0
	for attempt := 0; attempt < c.pollBudget; attempt++ {
		r, err := transport.ReadFull(c.tr, buf[n:])
		n += r
		if err == nil {
			return nil
		}
		if !errors.Is(err, transport.ErrTimeout) {
			return err
		}
	}
	return transport.ErrTimeout
}

// pollWords polls for n response words.
func (c *Interface) pollWords(n int) ([]uint32, error) {
	buf := make([]byte, n*protocol.WordSize)
	if err := c.pollFull(buf); err != nil {
		return nil, err
	}
	words, err := protocol.ParseWords(buf, n)
	if err != nil {
		return nil, err
	}
	for _, w := range words {
		c.logf("recv 0x%08X", w)
	}
	return words, nil
}
