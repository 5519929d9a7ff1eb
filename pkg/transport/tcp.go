package transport

import (
	"errors"
	"net"
	"time"
)

// tcpTransport drives a bench device or board simulator over TCP. Read
// deadlines make it behave like the serial backend: silence yields
// (0, nil) instead of blocking.
type tcpTransport struct {
	conn    net.Conn
	addr    string
	timeout time.Duration
}

func openTCP(addr string, cfg Config) (Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, &OpenError{Endpoint: "tcp://" + addr, Err: err}
	}
	return &tcpTransport{
		conn:    conn,
		addr:    addr,
		timeout: cfg.ReadTimeout,
	}, nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	t.conn.SetReadDeadline(time.Now().Add(pollInterval))
	n, err := t.conn.Read(p)
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return n, nil
	}
	if err != nil {
		return n, &IOError{Op: "read", Err: err}
	}
	return n, nil
}

func (t *tcpTransport) Write(p []byte) (int, error) {
	n, err := t.conn.Write(p)
	if err != nil {
		return n, &IOError{Op: "write", Err: err}
	}
	return n, nil
}

func (t *tcpTransport) Flush() error {
	buf := make([]byte, 256)
	for {
		t.conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
		n, _ := t.conn.Read(buf)
		if n == 0 {
			return nil
		}
	}
}

func (t *tcpTransport) SetReadTimeout(d time.Duration) error {
	t.timeout = d
	return nil
}

func (t *tcpTransport) ReadTimeout() time.Duration { return t.timeout }

func (t *tcpTransport) Close() error { return t.conn.Close() }
