// Package remote serves a board over WebSocket so sessions on other
// machines can drive it. Two endpoints share one board channel: /ws
// answers a JSON command envelope, /raw relays raw controller frames
// for the ws:// transport. A mutex arbitrates the channel, so exactly
// one client operates the board at a time.
package remote

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// Any origin may connect: the server fronts a bench board, not a
// browser application.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Request is one command envelope. Op names the operation using the
// shell's command vocabulary; the remaining fields carry operands and
// are ignored by operations that do not use them.
type Request struct {
	Op         string   `json:"op"`
	Addr       uint32   `json:"addr,omitempty"`
	Value      uint32   `json:"value,omitempty"`
	Count      uint32   `json:"count,omitempty"`
	Words      []uint32 `json:"words,omitempty"`
	SecondBank bool     `json:"second_bank,omitempty"`
}

// Response reports one operation's outcome. Data carries the words the
// operation produced, if any.
type Response struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Data    []uint32 `json:"data,omitempty"`
}

// Handler owns the board channel behind both WebSocket endpoints.
type Handler struct {
	tr   transport.Transport
	ctrl *controller.Interface
	log  *log.Logger

	// mu arbitrates the board. Envelope operations hold it per
	// request; a relay session holds it until the client hangs up.
	mu sync.Mutex

	cmu   sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHandler builds the WebSocket endpoints around an open board
// transport. Extra controller options reach the session behind the
// envelope API.
func NewHandler(tr transport.Transport, logger *log.Logger, opts ...controller.Option) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[serve] ", log.LstdFlags)
	}
	return &Handler{
		tr:    tr,
		ctrl:  controller.New(tr, opts...),
		log:   logger,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and answers command envelopes until the
// client hangs up. Operations run in the read loop, so a connection's
// responses come back in request order.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Printf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	h.track(conn)
	defer h.untrack(conn)
	h.log.Printf("client connected: %s", conn.RemoteAddr())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Printf("read failed: %v", err)
			}
			break
		}
		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			h.sendJSON(conn, "error", "invalid JSON", nil)
			continue
		}
		h.handle(conn, req)
	}
	h.log.Printf("client disconnected: %s", conn.RemoteAddr())
}

func (h *Handler) handle(conn *websocket.Conn, req Request) {
	if !h.mu.TryLock() {
		h.sendJSON(conn, "error", "board is busy", nil)
		return
	}
	defer h.mu.Unlock()

	data, err := h.execute(req)
	if err != nil {
		h.sendJSON(conn, "error", err.Error(), nil)
		return
	}
	h.sendJSON(conn, "success", "ok", data)
}

// execute runs one operation against the board and returns the words
// it produced, nil for fire-and-forget operations.
func (h *Handler) execute(req Request) ([]uint32, error) {
	switch req.Op {
	case "sync":
		return single(h.ctrl.Sync())
	case "write_clk":
		return nil, h.ctrl.ClockPulses(req.Count)
	case "stop_clk":
		return nil, h.ctrl.StopClock()
	case "resume_clk":
		return nil, h.ctrl.ResumeClock()
	case "reset_core":
		return nil, h.ctrl.ResetCore()
	case "write_memory":
		return nil, h.ctrl.WriteMemory(req.Addr, req.Value, req.SecondBank)
	case "read_memory":
		return single(h.ctrl.ReadMemory(req.Addr, req.SecondBank))
	case "load_msb_accumulator":
		return nil, h.ctrl.LoadAccumulatorMSB(req.Value)
	case "load_lsb_accumulator":
		return nil, h.ctrl.LoadAccumulatorLSB(req.Value)
	case "add_to_accumulator":
		return nil, h.ctrl.AddToAccumulator(req.Value)
	case "write_accumulator_to_memory":
		return nil, h.ctrl.StoreAccumulator(req.Addr)
	case "write_to_accumulator":
		return nil, h.ctrl.SetAccumulator(req.Value)
	case "read_accumulator":
		return single(h.ctrl.Accumulator())
	case "set_timeout":
		return nil, h.ctrl.SetTimeout(req.Value)
	case "set_memory_page_size":
		return nil, h.ctrl.SetMemoryPageSize(req.Value)
	case "run_memory_tests":
		return single(h.ctrl.RunMemoryTest(req.Count))
	case "get_module_id":
		return single(h.ctrl.ModuleID())
	case "set_breakpoint":
		return nil, h.ctrl.SetBreakpoint(req.Addr)
	case "set_accumulator_as_breakpoint":
		return nil, h.ctrl.AccumulatorAsBreakpoint()
	case "write_from_accumulator":
		return nil, h.ctrl.WriteWords(req.Words)
	case "read_to_accumulator":
		return h.ctrl.ReadWords(int(req.Count))
	case "swap_memory_to_core":
		return nil, h.ctrl.SwapMemoryPriority()
	case "until":
		return h.ctrl.RunUntilBreak()
	default:
		return nil, fmt.Errorf("unknown op %q", req.Op)
	}
}

func single(v uint32, err error) ([]uint32, error) {
	if err != nil {
		return nil, err
	}
	return []uint32{v}, nil
}

func (h *Handler) sendJSON(conn *websocket.Conn, status, message string, data []uint32) {
	resp := Response{Status: status, Message: message, Data: data}
	if err := conn.WriteJSON(resp); err != nil {
		h.log.Printf("failed to send response: %v", err)
	}
}

func (h *Handler) track(conn *websocket.Conn) {
	h.cmu.Lock()
	defer h.cmu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.cmu.Lock()
	defer h.cmu.Unlock()
	delete(h.conns, conn)
}

// closeConns hangs up every connected client. Graceful HTTP shutdown
// never reaches hijacked WebSocket connections, so the server calls
// this first.
func (h *Handler) closeConns() {
	h.cmu.Lock()
	defer h.cmu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
}
