package remote

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// relayIdleSleep paces the board-side read loop while the controller
// is silent.
const relayIdleSleep = 10 * time.Millisecond

// ServeRaw upgrades the request into a raw relay session: binary
// messages from the client go to the board as-is and whatever the
// board answers streams back. The session claims the board for as long
// as the client stays connected, so a remote shell holds an unbroken
// conversation.
func (h *Handler) ServeRaw(w http.ResponseWriter, r *http.Request) {
	if !h.mu.TryLock() {
		http.Error(w, "board is busy", http.StatusConflict)
		return
	}
	defer h.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Printf("relay upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	h.track(conn)
	defer h.untrack(conn)
	h.log.Printf("relay session from %s", conn.RemoteAddr())

	// Stale input from an earlier session would corrupt the first
	// exchange.
	if err := h.tr.Flush(); err != nil {
		h.log.Printf("relay flush failed: %v", err)
		return
	}

	done := make(chan struct{})
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.pumpBoard(conn, done)
	}()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		if _, err := h.tr.Write(msg); err != nil {
			h.log.Printf("relay write failed: %v", err)
			break
		}
	}
	close(done)
	// Closing the socket unblocks a pump stuck writing to a stalled
	// client; the pump must let go of the transport before the board is
	// handed to the next session.
	conn.Close()
	<-pumpDone
	h.log.Printf("relay session ended")
}

// pumpBoard streams board output to the client until the session ends
// or either side fails. A board-side failure hangs up the client so
// the session does not linger half-dead.
func (h *Handler) pumpBoard(conn *websocket.Conn, done <-chan struct{}) {
	buf := make([]byte, 1024)
	for {
		select {
		case <-done:
			return
		default:
		}
		n, err := h.tr.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			h.log.Printf("relay board read failed: %v", err)
			conn.Close()
			return
		}
		if n == 0 {
			time.Sleep(relayIdleSleep)
		}
	}
}
