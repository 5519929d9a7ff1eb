package transport

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Mock is an in-memory Transport for tests. Reads are served from a
// scripted buffer, writes are recorded, and failures can be injected.
// The read timeout defaults to a short budget so timeout-path tests
// stay fast.
type Mock struct {
	mu      sync.Mutex
	pending bytes.Buffer
	writes  [][]byte
	timeout time.Duration
	closed  bool

	// OnWrite, when set, receives every written frame and its return
	// value is queued as the response.
	OnWrite func(p []byte) []byte

	// ReadErr and WriteErr force the next Read or Write to fail.
	ReadErr  error
	WriteErr error
}

// NewMock returns an empty mock with a 50ms read timeout.
func NewMock() *Mock {
	return &Mock{timeout: 50 * time.Millisecond}
}

// Feed queues bytes for subsequent reads.
func (m *Mock) Feed(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Write(p)
}

// Writes returns the recorded write frames.
func (m *Mock) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WrittenBytes returns every written byte in order.
func (m *Mock) WrittenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []byte
	for _, w := range m.writes {
		all = append(all, w...)
	}
	return all
}

func (m *Mock) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, &IOError{Op: "read", Err: io.EOF}
	}
	if m.ReadErr != nil {
		err := m.ReadErr
		m.ReadErr = nil
		return 0, &IOError{Op: "read", Err: err}
	}
	if m.pending.Len() == 0 {
		return 0, nil
	}
	return m.pending.Read(p)
}

func (m *Mock) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, &IOError{Op: "write", Err: io.ErrClosedPipe}
	}
	if m.WriteErr != nil {
		err := m.WriteErr
		m.WriteErr = nil
		return 0, &IOError{Op: "write", Err: err}
	}
	frame := make([]byte, len(p))
	copy(frame, p)
	m.writes = append(m.writes, frame)
	if m.OnWrite != nil {
		if resp := m.OnWrite(frame); len(resp) > 0 {
			m.pending.Write(resp)
		}
	}
	return len(p), nil
}

func (m *Mock) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Reset()
	return nil
}

func (m *Mock) SetReadTimeout(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
	return nil
}

func (m *Mock) ReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
