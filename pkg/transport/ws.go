package transport

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport speaks to a served board over a WebSocket relay. Each
// binary message carries raw controller bytes. A reader goroutine pumps
// incoming messages because gorilla connections do not survive an
// expired read deadline.
type wsTransport struct {
	conn     *websocket.Conn
	incoming chan []byte
	pumpErr  error // valid once incoming is closed
	leftover []byte
	timeout  time.Duration
}

func openWebSocket(endpoint string, cfg Config) (Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, &OpenError{Endpoint: endpoint, Err: err}
	}

	t := &wsTransport{
		conn:     conn,
		incoming: make(chan []byte, 16),
		timeout:  cfg.ReadTimeout,
	}
	go t.pump()
	return t, nil
}

func (t *wsTransport) pump() {
	for {
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			t.pumpErr = err
			close(t.incoming)
			return
		}
		t.incoming <- msg
	}
}

func (t *wsTransport) Read(p []byte) (int, error) {
	if len(t.leftover) == 0 {
		select {
		case msg, ok := <-t.incoming:
			if !ok {
				return 0, &IOError{Op: "read", Err: t.pumpErr}
			}
			t.leftover = msg
		case <-time.After(pollInterval):
			return 0, nil
		}
	}
	n := copy(p, t.leftover)
	t.leftover = t.leftover[n:]
	return n, nil
}

func (t *wsTransport) Write(p []byte) (int, error) {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, &IOError{Op: "write", Err: err}
	}
	return len(p), nil
}

func (t *wsTransport) Flush() error {
	t.leftover = nil
	for {
		select {
		case _, ok := <-t.incoming:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (t *wsTransport) SetReadTimeout(d time.Duration) error {
	t.timeout = d
	return nil
}

func (t *wsTransport) ReadTimeout() time.Duration { return t.timeout }

func (t *wsTransport) Close() error { return t.conn.Close() }
